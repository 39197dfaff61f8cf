package lifecycle

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/autoscaling/autoscalingiface"
	"github.com/sirupsen/logrus"

	"github.com/donparapidos/shudder"
)

const lifecycleActionResultContinue = "CONTINUE"

// Signaler talks to the autoscaling lifecycle hook API on behalf of
// one lifecycle action: heartbeats while cleanup runs, a single
// completion once it is done.
type Signaler struct {
	as  autoscalingiface.AutoScalingAPI
	log *logrus.Logger

	completeAttempts int
	completeBackoff  time.Duration
}

// NewSignaler builds a Signaler.  completeAttempts caps how many
// times Complete will try before giving up; completeBackoff is the
// base delay doubled between attempts.
func NewSignaler(as autoscalingiface.AutoScalingAPI, log *logrus.Logger,
	completeAttempts int, completeBackoff time.Duration) *Signaler {

	if completeAttempts < 1 {
		completeAttempts = 1
	}

	return &Signaler{
		as:  as,
		log: log,

		completeAttempts: completeAttempts,
		completeBackoff:  completeBackoff,
	}
}

// Heartbeat tells the autoscaling group we are still cleaning up,
// resetting the hook's timeout window.  Failures are returned for
// the caller to retry at the next tick.
func (s *Signaler) Heartbeat(a *shudder.AutoscalingLifecycleAction) error {
	s.log.WithFields(logrus.Fields{
		"hook":        a.LifecycleHookName,
		"group":       a.AutoScalingGroupName,
		"instance_id": a.EC2InstanceID,
	}).Info("recording lifecycle heartbeat")

	_, err := s.as.RecordLifecycleActionHeartbeat(&autoscaling.RecordLifecycleActionHeartbeatInput{
		LifecycleHookName:    aws.String(a.LifecycleHookName),
		AutoScalingGroupName: aws.String(a.AutoScalingGroupName),
		LifecycleActionToken: aws.String(a.LifecycleActionToken),
		InstanceId:           aws.String(a.EC2InstanceID),
	})
	if err != nil {
		return fmt.Errorf("%w: heartbeat: %s", shudder.ErrLifecycleSignalFailed, err)
	}

	return nil
}

// Complete tells the autoscaling group cleanup finished and
// termination may proceed.  A missed completion leaves the instance
// hung until the hook timeout fires, so this retries with doubling
// backoff up to the configured attempt cap.
func (s *Signaler) Complete(a *shudder.AutoscalingLifecycleAction) error {
	var lastErr error
	backoff := s.completeBackoff

	for attempt := 1; attempt <= s.completeAttempts; attempt++ {
		s.log.WithFields(logrus.Fields{
			"hook":        a.LifecycleHookName,
			"group":       a.AutoScalingGroupName,
			"instance_id": a.EC2InstanceID,
			"attempt":     attempt,
		}).Info("completing lifecycle action")

		_, err := s.as.CompleteLifecycleAction(&autoscaling.CompleteLifecycleActionInput{
			LifecycleHookName:     aws.String(a.LifecycleHookName),
			AutoScalingGroupName:  aws.String(a.AutoScalingGroupName),
			LifecycleActionToken:  aws.String(a.LifecycleActionToken),
			LifecycleActionResult: aws.String(lifecycleActionResultContinue),
			InstanceId:            aws.String(a.EC2InstanceID),
		})
		if err == nil {
			return nil
		}

		lastErr = err
		s.log.WithFields(logrus.Fields{
			"err":     err,
			"attempt": attempt,
		}).Error("failed to complete lifecycle action")

		if attempt < s.completeAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	return fmt.Errorf("%w: complete after %d attempts: %s",
		shudder.ErrLifecycleSignalFailed, s.completeAttempts, lastErr)
}
