package daemon

import "time"

// Config is everything needed to run the daemon
type Config struct {
	ProcessID string
	Debug     bool

	AWSRegion string
	SQSPrefix string
	SNSTopic  string
	QueueTags map[string]string

	// InstanceID overrides metadata lookup when non-empty, mostly
	// for running outside EC2
	InstanceID string

	Addr string

	VisibilityTimeout int
	ReceiveWaitTime   int64
	ReceiveBatchSize  int64

	HeartbeatInterval time.Duration
	CompleteAttempts  int
	CompleteBackoff   time.Duration

	CleanupCommands []string

	SlackTeam    string
	SlackToken   string
	SlackChannel string

	SentryDSN string
}
