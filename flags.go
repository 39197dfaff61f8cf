package shudder

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
)

var (
	// ConfigFileFlag points at an optional TOML config file whose
	// values act as defaults underneath the flags
	ConfigFileFlag = cli.StringFlag{
		Name:   "C, config",
		Usage:  "path to a TOML config file",
		EnvVar: "SHUDDER_CONFIG_FILE",
	}
	// RegionFlag is the AWS region used for all API clients
	RegionFlag = cli.StringFlag{
		Name:   "R, region",
		Value:  "us-east-1",
		EnvVar: "AWS_DEFAULT_REGION",
	}
	// SQSPrefixFlag is the prefix prepended to the instance id when
	// naming the per-instance queue
	SQSPrefixFlag = cli.StringFlag{
		Name:   "p, sqs-prefix",
		Value:  "shudder",
		Usage:  "queue name prefix, combined as <prefix>-<instance-id>",
		EnvVar: "SHUDDER_SQS_PREFIX",
	}
	// SNSTopicFlag is the ARN of the topic that fans out lifecycle
	// notifications
	SNSTopicFlag = cli.StringFlag{
		Name:   "t, sns-topic",
		Usage:  "ARN of the lifecycle notification topic",
		EnvVar: "SHUDDER_SNS_TOPIC",
	}
	// QueueTagsFlag is an optional comma-separated key=value list of
	// tags applied to the queue after creation
	QueueTagsFlag = cli.StringFlag{
		Name:   "queue-tags",
		Usage:  "comma-separated key=value tags for the queue",
		EnvVar: "SHUDDER_QUEUE_TAGS",
	}
	// AddrFlag is the flag used for the status server address,
	// checking also for the presence of the PORT env var
	AddrFlag = cli.StringFlag{
		Name: "a, addr",
		Value: func() string {
			v := ":" + os.Getenv("PORT")
			if v == ":" {
				v = ":42152"
			}
			return v
		}(),
		Usage:  "status server address, empty to disable",
		EnvVar: "SHUDDER_ADDR",
	}
	// HeartbeatIntervalFlag is the cadence in seconds at which
	// lifecycle heartbeats are recorded while cleanup runs
	HeartbeatIntervalFlag = cli.IntFlag{
		Name:   "H, heartbeat-interval",
		Value:  60,
		Usage:  "seconds between lifecycle heartbeats during cleanup",
		EnvVar: "SHUDDER_HEARTBEAT_INTERVAL",
	}
	// SlackTeamFlag is the team name for slack integration
	SlackTeamFlag = cli.StringFlag{
		Name:   "slack-team",
		EnvVar: "SHUDDER_SLACK_TEAM",
	}
	// SlackTokenFlag is the hubot token for slack integration
	SlackTokenFlag = cli.StringFlag{
		Name:   "slack-token",
		EnvVar: "SHUDDER_SLACK_TOKEN",
	}
	// SlackChannelFlag is the channel notified when a termination
	// notice is matched
	SlackChannelFlag = cli.StringFlag{
		Name:   "slack-channel",
		Value:  "#general",
		EnvVar: "SHUDDER_SLACK_CHANNEL",
	}
	// SentryDSNFlag is the dsn string used to initialize raven
	// clients
	SentryDSNFlag = cli.StringFlag{
		Name:   "sentry-dsn",
		Value:  os.Getenv("SENTRY_DSN"),
		EnvVar: "SHUDDER_SENTRY_DSN",
	}
	// DebugFlag enables debug logging
	DebugFlag = cli.BoolFlag{
		Name:   "debug",
		EnvVar: "DEBUG",
	}
)

// WriteFlagsToEnv takes the parsed *cli.Context and writes flag
// values back into the os env, mostly for purposes of exposing via
// the status server `/debug/vars` route.
func WriteFlagsToEnv(c *cli.Context) {
	for _, fl := range c.App.Flags {
		switch flVal := fl.(type) {
		case cli.StringFlag:
			names := strings.Split(flVal.Name, ",")
			if len(names) < 1 {
				continue
			}

			v := c.String(names[0])
			envVar := flVal.EnvVar
			if v != "" && envVar != "" {
				os.Setenv(envVar, v)
			}
		case cli.IntFlag:
			names := strings.Split(flVal.Name, ",")
			if len(names) < 1 {
				continue
			}

			v := c.Int(names[0])
			envVar := flVal.EnvVar
			if envVar != "" {
				os.Setenv(envVar, fmt.Sprintf("%d", v))
			}
		case cli.BoolFlag:
			names := strings.Split(flVal.Name, ",")
			if len(names) < 1 {
				continue
			}

			v := c.Bool(names[0])
			envVar := flVal.EnvVar
			if envVar != "" {
				os.Setenv(envVar, fmt.Sprintf("%v", v))
			}
		}
	}
}

// ParseQueueTags splits a comma-separated key=value list into a tag
// map, dropping entries without a value.
func ParseQueueTags(s string) map[string]string {
	tags := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			continue
		}

		tags[kv[0]] = kv[1]
	}

	return tags
}
