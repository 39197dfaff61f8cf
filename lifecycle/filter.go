package lifecycle

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/donparapidos/shudder"
)

// Classify unwraps a raw queue message (SNS envelope wrapping a
// lifecycle action payload) and decides whether it is a termination
// notice aimed at this instance.  It returns the parsed action on a
// match, nil for noise aimed elsewhere, and ErrMalformedMessage when
// either JSON layer refuses to parse.
func Classify(msg *sqs.Message, instanceID string) (*shudder.AutoscalingLifecycleAction, error) {
	envelope := &shudder.SNSMessage{}
	err := json.Unmarshal([]byte(aws.StringValue(msg.Body)), envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: envelope: %s", shudder.ErrMalformedMessage, err)
	}

	action := &shudder.AutoscalingLifecycleAction{}
	err = json.Unmarshal([]byte(envelope.Message), action)
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %s", shudder.ErrMalformedMessage, err)
	}

	if !action.Terminating() || action.EC2InstanceID != instanceID {
		return nil, nil
	}

	return action, nil
}
