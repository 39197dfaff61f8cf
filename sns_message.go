package shudder

// SNSMessage is the envelope SNS wraps around every notification it
// delivers into an SQS queue.  The interesting bits live one layer
// down: the Message field is itself a JSON document.
type SNSMessage struct {
	Type             string
	MessageID        string `json:"MessageId"`
	TopicARN         string `json:"TopicArn"`
	Subject          string
	Message          string
	Timestamp        string
	SignatureVersion string
	Signature        string
	SigningCertURL   string
	UnsubscribeURL   string
}
