package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/donparapidos/shudder"
	"github.com/donparapidos/shudder/daemon"
)

func main() {
	app := cli.NewApp()
	app.Name = "shudder"
	app.Usage = "wait around for this instance's termination notice, then shut down gracefully"
	app.Version = shudder.VersionString
	app.Flags = []cli.Flag{
		shudder.ConfigFileFlag,
		shudder.RegionFlag,
		shudder.SQSPrefixFlag,
		shudder.SNSTopicFlag,
		shudder.QueueTagsFlag,
		shudder.AddrFlag,
		shudder.HeartbeatIntervalFlag,
		cli.StringFlag{
			Name:   "i, instance-id",
			Usage:  "skip the metadata lookup and use this instance id",
			EnvVar: "SHUDDER_INSTANCE_ID",
		},
		cli.IntFlag{
			Name:   "visibility-timeout",
			Value:  3600,
			Usage:  "queue visibility timeout in seconds, longer than the worst-case cleanup",
			EnvVar: "SHUDDER_VISIBILITY_TIMEOUT",
		},
		cli.IntFlag{
			Name:   "receive-wait-time",
			Value:  20,
			Usage:  "long-poll wait in seconds per receive call",
			EnvVar: "SHUDDER_RECEIVE_WAIT_TIME",
		},
		cli.IntFlag{
			Name:   "receive-batch-size",
			Value:  10,
			EnvVar: "SHUDDER_RECEIVE_BATCH_SIZE",
		},
		cli.IntFlag{
			Name:   "complete-attempts",
			Value:  5,
			Usage:  "attempts before giving up on completing the lifecycle action",
			EnvVar: "SHUDDER_COMPLETE_ATTEMPTS",
		},
		cli.IntFlag{
			Name:   "complete-backoff",
			Value:  2,
			Usage:  "base backoff in seconds between completion attempts",
			EnvVar: "SHUDDER_COMPLETE_BACKOFF",
		},
		cli.StringFlag{
			Name: "P, process-id",
			Value: func() string {
				return fmt.Sprintf("%d", os.Getpid())
			}(),
			EnvVar: "SHUDDER_PROCESS_ID",
		},
		shudder.SlackTeamFlag,
		shudder.SlackTokenFlag,
		shudder.SlackChannelFlag,
		shudder.SentryDSNFlag,
		shudder.DebugFlag,
	}
	app.Action = runDaemon
	_ = app.Run(os.Args)
}

func runDaemon(c *cli.Context) error {
	cfg := &daemon.Config{
		ProcessID: c.String("process-id"),
		Debug:     c.Bool("debug"),

		AWSRegion: c.String("region"),
		SQSPrefix: c.String("sqs-prefix"),
		SNSTopic:  c.String("sns-topic"),
		QueueTags: shudder.ParseQueueTags(c.String("queue-tags")),

		InstanceID: c.String("instance-id"),

		Addr: c.String("addr"),

		VisibilityTimeout: c.Int("visibility-timeout"),
		ReceiveWaitTime:   int64(c.Int("receive-wait-time")),
		ReceiveBatchSize:  int64(c.Int("receive-batch-size")),

		HeartbeatInterval: time.Duration(c.Int("heartbeat-interval")) * time.Second,
		CompleteAttempts:  c.Int("complete-attempts"),
		CompleteBackoff:   time.Duration(c.Int("complete-backoff")) * time.Second,

		SlackTeam:    c.String("slack-team"),
		SlackToken:   c.String("slack-token"),
		SlackChannel: c.String("slack-channel"),

		SentryDSN: c.String("sentry-dsn"),
	}

	if path := c.String("config"); path != "" {
		fileCfg, err := shudder.LoadFileConfig(path)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("failed to load config file: %s", err), 2)
		}

		mergeFileConfig(c, cfg, fileCfg)
	}

	shudder.WriteFlagsToEnv(c)

	daemon.Main(cfg)
	return nil
}

// mergeFileConfig fills cfg from the file for anything not set
// explicitly on the command line; flags always win.
func mergeFileConfig(c *cli.Context, cfg *daemon.Config, fileCfg *shudder.FileConfig) {
	if fileCfg.Region != "" && !c.IsSet("region") {
		cfg.AWSRegion = fileCfg.Region
	}
	if fileCfg.SQSPrefix != "" && !c.IsSet("sqs-prefix") {
		cfg.SQSPrefix = fileCfg.SQSPrefix
	}
	if fileCfg.SNSTopic != "" && !c.IsSet("sns-topic") {
		cfg.SNSTopic = fileCfg.SNSTopic
	}
	if len(fileCfg.QueueTags) > 0 && !c.IsSet("queue-tags") {
		cfg.QueueTags = fileCfg.QueueTags
	}
	if fileCfg.HeartbeatInterval > 0 && !c.IsSet("heartbeat-interval") {
		cfg.HeartbeatInterval = time.Duration(fileCfg.HeartbeatInterval) * time.Second
	}
	if fileCfg.VisibilityTimeout > 0 && !c.IsSet("visibility-timeout") {
		cfg.VisibilityTimeout = fileCfg.VisibilityTimeout
	}

	cfg.CleanupCommands = fileCfg.CleanupCommands
}
