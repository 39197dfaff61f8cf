package queue

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"

	"github.com/donparapidos/shudder"
)

// Queue is a provisioned per-instance notification queue together
// with its topic subscription.  It is owned exclusively by this
// process; nothing else polls it.
type Queue struct {
	URL             string
	ARN             string
	SubscriptionARN string

	sqs sqsiface.SQSAPI
	sns snsiface.SNSAPI
}

// Receive long-polls for up to max messages, waiting up to wait
// seconds before returning an empty batch
func (q *Queue) Receive(max, wait int64) ([]*sqs.Message, error) {
	resp, err := q.sqs.ReceiveMessage(&sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.URL),
		MaxNumberOfMessages: aws.Int64(max),
		WaitTimeSeconds:     aws.Int64(wait),
	})
	if err != nil {
		return nil, err
	}

	return resp.Messages, nil
}

// DeleteMessage removes a received message from the queue.  Every
// received message gets deleted exactly once, matching or not,
// otherwise the visibility timeout hands it right back.
func (q *Queue) DeleteMessage(msg *sqs.Message) error {
	_, err := q.sqs.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.URL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	return err
}

// Teardown unsubscribes the topic and deletes the queue.  Both steps
// are attempted regardless of the other failing.
func (q *Queue) Teardown() error {
	merr := &shudder.MultiError{}

	_, err := q.sqs.DeleteQueue(&sqs.DeleteQueueInput{
		QueueUrl: aws.String(q.URL),
	})
	if err != nil {
		merr.Add(fmt.Errorf("delete queue: %s", err))
	}

	_, err = q.sns.Unsubscribe(&sns.UnsubscribeInput{
		SubscriptionArn: aws.String(q.SubscriptionARN),
	})
	if err != nil {
		merr.Add(fmt.Errorf("unsubscribe topic: %s", err))
	}

	return merr.AsError()
}
