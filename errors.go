package shudder

import "fmt"

var (
	// ErrMetadataUnavailable means the instance metadata service did
	// not cough up an instance id, without which nothing else can run
	ErrMetadataUnavailable = fmt.Errorf("instance metadata unavailable")

	// ErrProvisioningFailed means the notification queue could not be
	// created, authorized, or subscribed
	ErrProvisioningFailed = fmt.Errorf("notification queue provisioning failed")

	// ErrMalformedMessage means a received message could not be
	// unwrapped as an SNS envelope carrying a lifecycle action
	ErrMalformedMessage = fmt.Errorf("malformed notification message")

	// ErrLifecycleSignalFailed means a heartbeat or completion call
	// against the autoscaling lifecycle hook API did not go through
	ErrLifecycleSignalFailed = fmt.Errorf("lifecycle signal failed")
)
