package queue

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/sirupsen/logrus"

	"github.com/donparapidos/shudder"
)

// Provisioner sets up the per-instance notification queue: creates
// it, tags it, grants the topic permission to send into it, and
// subscribes the topic to it.
type Provisioner struct {
	sqs sqsiface.SQSAPI
	sns snsiface.SNSAPI
	log *logrus.Logger

	prefix            string
	topicARN          string
	visibilityTimeout int
	tags              map[string]string
}

// NewProvisioner builds a Provisioner
func NewProvisioner(sqsAPI sqsiface.SQSAPI, snsAPI snsiface.SNSAPI, log *logrus.Logger,
	prefix, topicARN string, visibilityTimeout int, tags map[string]string) *Provisioner {

	return &Provisioner{
		sqs: sqsAPI,
		sns: snsAPI,
		log: log,

		prefix:            prefix,
		topicARN:          topicARN,
		visibilityTimeout: visibilityTimeout,
		tags:              tags,
	}
}

// QueueName derives the deterministic per-instance queue name
func (p *Provisioner) QueueName(instanceID string) string {
	return fmt.Sprintf("%s-%s", p.prefix, instanceID)
}

// Provision runs the whole setup dance for the given instance id and
// returns the ready-to-poll queue.  Any step other than tagging is
// fatal: an instance that cannot receive termination notices has no
// business pretending it can shut down gracefully.
func (p *Provisioner) Provision(instanceID string) (*Queue, error) {
	name := p.QueueName(instanceID)
	p.log.WithFields(logrus.Fields{
		"queue": name,
	}).Info("creating notification queue")

	created, err := p.sqs.CreateQueue(&sqs.CreateQueueInput{
		QueueName: aws.String(name),
		Attributes: map[string]*string{
			"VisibilityTimeout": aws.String(fmt.Sprintf("%d", p.visibilityTimeout)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create queue: %s", shudder.ErrProvisioningFailed, err)
	}

	queueURL := aws.StringValue(created.QueueUrl)

	if len(p.tags) > 0 {
		p.tagQueue(queueURL)
	}

	attrs, err := p.sqs.GetQueueAttributes(&sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(queueURL),
		AttributeNames: []*string{
			aws.String("QueueArn"),
			aws.String("Policy"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get queue attributes: %s", shudder.ErrProvisioningFailed, err)
	}

	queueARN := aws.StringValue(attrs.Attributes["QueueArn"])

	policy, changed, err := ensureStatement(aws.StringValue(attrs.Attributes["Policy"]), p.topicARN, queueARN)
	if err != nil {
		return nil, fmt.Errorf("%w: queue policy: %s", shudder.ErrProvisioningFailed, err)
	}

	if changed {
		p.log.WithFields(logrus.Fields{
			"queue": name,
			"topic": p.topicARN,
		}).Info("granting topic permission to send into queue")

		_, err = p.sqs.SetQueueAttributes(&sqs.SetQueueAttributesInput{
			QueueUrl: aws.String(queueURL),
			Attributes: map[string]*string{
				"Policy": aws.String(policy),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: set queue attributes: %s", shudder.ErrProvisioningFailed, err)
		}
	} else {
		p.log.WithField("queue", name).Debug("topic permission already present")
	}

	sub, err := p.sns.Subscribe(&sns.SubscribeInput{
		TopicArn: aws.String(p.topicARN),
		Protocol: aws.String("sqs"),
		Endpoint: aws.String(queueARN),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe topic: %s", shudder.ErrProvisioningFailed, err)
	}

	p.log.WithFields(logrus.Fields{
		"queue":        name,
		"subscription": aws.StringValue(sub.SubscriptionArn),
	}).Info("notification queue ready")

	return &Queue{
		URL:             queueURL,
		ARN:             queueARN,
		SubscriptionARN: aws.StringValue(sub.SubscriptionArn),

		sqs: p.sqs,
		sns: p.sns,
	}, nil
}

// tagQueue applies the configured tags, logging instead of failing:
// a queue that cannot be tagged can still deliver termination
// notices.
func (p *Provisioner) tagQueue(queueURL string) {
	tags := map[string]*string{}
	for k, v := range p.tags {
		tags[k] = aws.String(v)
	}

	_, err := p.sqs.TagQueue(&sqs.TagQueueInput{
		QueueUrl: aws.String(queueURL),
		Tags:     tags,
	})
	if err != nil {
		p.log.WithFields(logrus.Fields{
			"err":  err,
			"tags": p.tags,
		}).Warn("failed to tag queue")
	}
}
