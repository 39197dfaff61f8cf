package queue

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/sirupsen/logrus"
)

var (
	testTopicARN   = "arn:aws:sns:us-east-1:1234567899:shudder-test"
	testInstanceID = "i-0123"
)

type fakeSQS struct {
	sqsiface.SQSAPI

	createdName  string
	createdAttrs map[string]*string
	queueARN     string
	policy       string
	policyWrites int

	tags   map[string]*string
	tagErr error

	messages        []*sqs.Message
	deletedReceipts []string
	queueDeleted    bool
}

func (f *fakeSQS) CreateQueue(in *sqs.CreateQueueInput) (*sqs.CreateQueueOutput, error) {
	f.createdName = aws.StringValue(in.QueueName)
	f.createdAttrs = in.Attributes
	f.queueARN = "arn:aws:sqs:us-east-1:1234567899:" + f.createdName

	return &sqs.CreateQueueOutput{
		QueueUrl: aws.String("https://sqs.us-east-1.amazonaws.com/1234567899/" + f.createdName),
	}, nil
}

func (f *fakeSQS) TagQueue(in *sqs.TagQueueInput) (*sqs.TagQueueOutput, error) {
	if f.tagErr != nil {
		return nil, f.tagErr
	}
	f.tags = in.Tags
	return &sqs.TagQueueOutput{}, nil
}

func (f *fakeSQS) GetQueueAttributes(in *sqs.GetQueueAttributesInput) (*sqs.GetQueueAttributesOutput, error) {
	attrs := map[string]*string{
		"QueueArn": aws.String(f.queueARN),
	}
	if f.policy != "" {
		attrs["Policy"] = aws.String(f.policy)
	}
	return &sqs.GetQueueAttributesOutput{Attributes: attrs}, nil
}

func (f *fakeSQS) SetQueueAttributes(in *sqs.SetQueueAttributesInput) (*sqs.SetQueueAttributesOutput, error) {
	f.policy = aws.StringValue(in.Attributes["Policy"])
	f.policyWrites++
	return &sqs.SetQueueAttributesOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(in *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	msgs := f.messages
	f.messages = nil
	return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (f *fakeSQS) DeleteMessage(in *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	f.deletedReceipts = append(f.deletedReceipts, aws.StringValue(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) DeleteQueue(in *sqs.DeleteQueueInput) (*sqs.DeleteQueueOutput, error) {
	f.queueDeleted = true
	return &sqs.DeleteQueueOutput{}, nil
}

type fakeSNS struct {
	snsiface.SNSAPI

	subscribedEndpoint string
	unsubscribed       string
}

func (f *fakeSNS) Subscribe(in *sns.SubscribeInput) (*sns.SubscribeOutput, error) {
	f.subscribedEndpoint = aws.StringValue(in.Endpoint)
	return &sns.SubscribeOutput{
		SubscriptionArn: aws.String(testTopicARN + ":sub-abc123"),
	}, nil
}

func (f *fakeSNS) Unsubscribe(in *sns.UnsubscribeInput) (*sns.UnsubscribeOutput, error) {
	f.unsubscribed = aws.StringValue(in.SubscriptionArn)
	return &sns.UnsubscribeOutput{}, nil
}

func buildTestProvisioner(sqsAPI sqsiface.SQSAPI, snsAPI snsiface.SNSAPI, tags map[string]string) *Provisioner {
	return NewProvisioner(sqsAPI, snsAPI, logrus.New(), "myapp", testTopicARN, 3600, tags)
}

func statementCount(t *testing.T, rawPolicy string) int {
	doc := struct {
		Statement []json.RawMessage `json:"Statement"`
	}{}
	err := json.Unmarshal([]byte(rawPolicy), &doc)
	if err != nil {
		t.Fatalf("stored policy does not parse: %v", err)
	}
	return len(doc.Statement)
}

func TestProvisionQueueName(t *testing.T) {
	fsqs := &fakeSQS{}
	fsns := &fakeSNS{}

	q, err := buildTestProvisioner(fsqs, fsns, nil).Provision(testInstanceID)
	if err != nil {
		t.Fatalf("provision returned error: %v", err)
	}

	if fsqs.createdName != "myapp-i-0123" {
		t.Errorf("queue name %q != %q", fsqs.createdName, "myapp-i-0123")
	}
	if aws.StringValue(fsqs.createdAttrs["VisibilityTimeout"]) != "3600" {
		t.Errorf("visibility timeout %q != %q", aws.StringValue(fsqs.createdAttrs["VisibilityTimeout"]), "3600")
	}
	if q.ARN != fsqs.queueARN {
		t.Errorf("queue arn %q != %q", q.ARN, fsqs.queueARN)
	}
	if fsns.subscribedEndpoint != fsqs.queueARN {
		t.Errorf("subscribed endpoint %q != queue arn %q", fsns.subscribedEndpoint, fsqs.queueARN)
	}
	if q.SubscriptionARN == "" {
		t.Error("empty subscription arn")
	}
}

func TestProvisionIsIdempotent(t *testing.T) {
	fsqs := &fakeSQS{}
	fsns := &fakeSNS{}
	p := buildTestProvisioner(fsqs, fsns, nil)

	_, err := p.Provision(testInstanceID)
	if err != nil {
		t.Fatalf("first provision returned error: %v", err)
	}
	if n := statementCount(t, fsqs.policy); n != 1 {
		t.Fatalf("statement count %v != 1 after first provision", n)
	}

	_, err = p.Provision(testInstanceID)
	if err != nil {
		t.Fatalf("second provision returned error: %v", err)
	}
	if n := statementCount(t, fsqs.policy); n != 1 {
		t.Errorf("statement count %v != 1 after second provision", n)
	}
	if fsqs.policyWrites != 1 {
		t.Errorf("policy write count %v != 1", fsqs.policyWrites)
	}
}

func TestProvisionKeepsForeignStatements(t *testing.T) {
	fsqs := &fakeSQS{}
	fsns := &fakeSNS{}

	fsqs.policy = `{"Version":"2008-10-17","Statement":[{"Sid":"somebody-else","Effect":"Allow","Principal":{"AWS":"*"},"Action":"SQS:SendMessage","Resource":"whatever","Condition":{}}]}`

	_, err := buildTestProvisioner(fsqs, fsns, nil).Provision(testInstanceID)
	if err != nil {
		t.Fatalf("provision returned error: %v", err)
	}

	if n := statementCount(t, fsqs.policy); n != 2 {
		t.Errorf("statement count %v != 2", n)
	}
}

func TestProvisionTagFailureIsNotFatal(t *testing.T) {
	fsqs := &fakeSQS{tagErr: errors.New("no tagging for you")}
	fsns := &fakeSNS{}

	_, err := buildTestProvisioner(fsqs, fsns, map[string]string{"team": "blue"}).Provision(testInstanceID)
	if err != nil {
		t.Errorf("provision returned error on tag failure: %v", err)
	}
}

func TestProvisionAppliesTags(t *testing.T) {
	fsqs := &fakeSQS{}
	fsns := &fakeSNS{}

	_, err := buildTestProvisioner(fsqs, fsns, map[string]string{"team": "blue"}).Provision(testInstanceID)
	if err != nil {
		t.Fatalf("provision returned error: %v", err)
	}

	if aws.StringValue(fsqs.tags["team"]) != "blue" {
		t.Errorf("tag %q != %q", aws.StringValue(fsqs.tags["team"]), "blue")
	}
}

func TestTeardown(t *testing.T) {
	fsqs := &fakeSQS{}
	fsns := &fakeSNS{}

	q, err := buildTestProvisioner(fsqs, fsns, nil).Provision(testInstanceID)
	if err != nil {
		t.Fatalf("provision returned error: %v", err)
	}

	err = q.Teardown()
	if err != nil {
		t.Fatalf("teardown returned error: %v", err)
	}

	if !fsqs.queueDeleted {
		t.Error("queue was not deleted")
	}
	if fsns.unsubscribed != q.SubscriptionARN {
		t.Errorf("unsubscribed %q != %q", fsns.unsubscribed, q.SubscriptionARN)
	}
}

func TestReceiveAndDeleteMessage(t *testing.T) {
	fsqs := &fakeSQS{}
	fsns := &fakeSNS{}

	q, err := buildTestProvisioner(fsqs, fsns, nil).Provision(testInstanceID)
	if err != nil {
		t.Fatalf("provision returned error: %v", err)
	}

	fsqs.messages = []*sqs.Message{
		{Body: aws.String("{}"), ReceiptHandle: aws.String("receipt-1")},
	}

	msgs, err := q.Receive(10, 20)
	if err != nil {
		t.Fatalf("receive returned error: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("message count %v != 1", len(msgs))
	}

	err = q.DeleteMessage(msgs[0])
	if err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if len(fsqs.deletedReceipts) != 1 || fsqs.deletedReceipts[0] != "receipt-1" {
		t.Errorf("deleted receipts %v are wrong", fsqs.deletedReceipts)
	}
}
