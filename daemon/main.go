package daemon

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/autoscaling"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/getsentry/raven-go"
	"github.com/sirupsen/logrus"

	"github.com/donparapidos/shudder"
	"github.com/donparapidos/shudder/lifecycle"
	"github.com/donparapidos/shudder/metadata"
	"github.com/donparapidos/shudder/queue"
	"github.com/donparapidos/shudder/server"
)

// Main is the whole shebang
func Main(cfg *Config) {
	log := logrus.New()
	if cfg.Debug {
		log.Level = logrus.DebugLevel
	}

	log.WithFields(logrus.Fields{
		"version": shudder.VersionString,
		"pid":     cfg.ProcessID,
	}).Info("starting up")

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWSRegion),
	})
	if err != nil {
		fatal(cfg, log, err, "failed to build aws session")
	}

	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID, err = metadata.NewResolver(sess, log).InstanceID()
		if err != nil {
			fatal(cfg, log, err, "failed to resolve own instance id")
		}
	}

	provisioner := queue.NewProvisioner(sqs.New(sess), sns.New(sess), log,
		cfg.SQSPrefix, cfg.SNSTopic, cfg.VisibilityTimeout, cfg.QueueTags)

	q, err := provisioner.Provision(instanceID)
	if err != nil {
		fatal(cfg, log, err, "failed to provision notification queue")
	}

	signaler := lifecycle.NewSignaler(autoscaling.New(sess), log,
		cfg.CompleteAttempts, cfg.CompleteBackoff)

	notifiers := []shudder.Notifier{}
	if cfg.SlackTeam != "" && cfg.SlackToken != "" {
		notifiers = append(notifiers,
			shudder.NewSlackNotifier(cfg.SlackTeam, cfg.SlackToken, "shudder"))
	}

	d := New(cfg, log, instanceID, q, signaler, notifiers)

	var srv *server.Server
	if cfg.Addr != "" {
		srv = server.New(cfg.Addr, log, func() string {
			return string(d.State())
		})
		go srv.Run()
	}

	err = d.Run()
	if err != nil {
		fatal(cfg, log, err, "daemon exited with error")
	}

	if srv != nil {
		srv.Stop()
	}

	log.Info("all done, goodbye")
}

// fatal reports the error to sentry when a DSN is configured, then
// logs and exits non-zero.
func fatal(cfg *Config, log *logrus.Logger, err error, msg string) {
	if cfg.SentryDSN != "" {
		cl, ravenErr := raven.NewClient(cfg.SentryDSN, nil)
		if ravenErr != nil {
			log.WithField("err", ravenErr).Error("failed to build raven client")
		} else {
			packet := raven.NewPacket(err.Error(),
				raven.NewException(err, raven.NewStacktrace(2, 3, nil)))
			_ = shudder.SendRavenPacket(packet, cl, log, map[string]string{"level": "fatal"})
		}
	}

	log.WithField("err", err).Fatal(msg)
}
