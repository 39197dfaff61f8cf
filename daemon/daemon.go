package daemon

import (
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/sirupsen/logrus"

	"github.com/donparapidos/shudder"
	"github.com/donparapidos/shudder/lifecycle"
)

// State names one stop in the daemon's lifecycle
type State string

const (
	// StateIdle is where the daemon starts, before provisioning
	StateIdle State = "idle"
	// StatePolling is the steady state: waiting on the queue for a
	// termination notice, usually forever
	StatePolling State = "polling"
	// StateMatched means a termination notice for this instance
	// arrived and the rest of its batch is being drained
	StateMatched State = "matched"
	// StateTerminating means cleanup is running with heartbeats
	// going out underneath it
	StateTerminating State = "terminating"
	// StateTeardown means the lifecycle action is complete and the
	// queue is being removed
	StateTeardown State = "teardown"
	// StateDone is terminal
	StateDone State = "done"
)

type notificationQueue interface {
	Receive(max, wait int64) ([]*sqs.Message, error)
	DeleteMessage(*sqs.Message) error
	Teardown() error
}

type lifecycleSignaler interface {
	Heartbeat(*shudder.AutoscalingLifecycleAction) error
	Complete(*shudder.AutoscalingLifecycleAction) error
}

// Daemon drives one instance's graceful scale-down: poll the queue,
// match the notice, heartbeat through cleanup, complete, tear down.
type Daemon struct {
	cfg *Config
	log *logrus.Entry

	instanceID string
	queue      notificationQueue
	signaler   lifecycleSignaler
	notifiers  []shudder.Notifier

	// Cleanup runs this instance's shutdown work while heartbeats
	// keep the lifecycle hook from timing out.  Defaults to running
	// cfg.CleanupCommands in order.
	Cleanup func() error

	stateMu      sync.Mutex
	state        State
	handledToken string
}

// New builds a Daemon around an already-provisioned queue
func New(cfg *Config, log *logrus.Logger, instanceID string,
	q notificationQueue, sig lifecycleSignaler, notifiers []shudder.Notifier) *Daemon {

	d := &Daemon{
		cfg: cfg,
		log: log.WithField("pid", cfg.ProcessID),

		instanceID: instanceID,
		queue:      q,
		signaler:   sig,
		notifiers:  notifiers,

		state: StateIdle,
	}

	d.Cleanup = func() error {
		return runCleanupCommands(cfg.CleanupCommands, log)
	}

	return d
}

// State reports where in the lifecycle the daemon currently is
func (d *Daemon) State() State {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.state
}

func (d *Daemon) setState(s State) {
	d.stateMu.Lock()
	d.state = s
	d.stateMu.Unlock()

	d.log.WithField("state", s).Info("state changed")
}

// Run polls until a termination notice for this instance shows up,
// then handles it to the end.  For most of an instance's life this
// never returns.
func (d *Daemon) Run() error {
	d.setState(StatePolling)

	for {
		action := d.pollOnce()
		if action != nil {
			return d.terminate(action)
		}
	}
}

// pollOnce performs one receive call, deletes every delivered
// message exactly once, and returns the first action that matches
// this instance.  The rest of the batch is still drained after a
// match; duplicates of an already-matched token are only logged.
func (d *Daemon) pollOnce() *shudder.AutoscalingLifecycleAction {
	defer func() {
		if p := recover(); p != nil {
			d.log.WithField("err", p).Error("recovered from panic in poll loop")
		}
	}()

	msgs, err := d.queue.Receive(d.cfg.ReceiveBatchSize, d.cfg.ReceiveWaitTime)
	if err != nil {
		d.log.WithField("err", err).Error("failed to receive from queue")
		time.Sleep(time.Second)
		return nil
	}

	var matched *shudder.AutoscalingLifecycleAction

	for _, msg := range msgs {
		err = d.queue.DeleteMessage(msg)
		if err != nil {
			d.log.WithField("err", err).Error("failed to delete message")
		}

		action, err := lifecycle.Classify(msg, d.instanceID)
		if err != nil {
			d.log.WithField("err", err).Warn("skipping unparseable message")
			continue
		}

		if action == nil {
			d.log.Debug("ignoring message not meant for us")
			continue
		}

		if matched != nil || d.handledToken == action.LifecycleActionToken {
			d.log.WithField("token", action.LifecycleActionToken).Warn("ignoring duplicate termination notice")
			continue
		}

		d.log.WithFields(logrus.Fields{
			"hook":  action.LifecycleHookName,
			"group": action.AutoScalingGroupName,
			"token": action.LifecycleActionToken,
		}).Info("termination notice received, hasta la vista")

		matched = action
		d.handledToken = action.LifecycleActionToken
		d.setState(StateMatched)
	}

	return matched
}

// terminate drives the back half of the lifecycle: heartbeats under
// cleanup, one completion, queue teardown.
func (d *Daemon) terminate(action *shudder.AutoscalingLifecycleAction) error {
	d.setState(StateTerminating)
	d.notify(fmt.Sprintf("Running cleanup on *%s* before termination", d.instanceID))

	// reset the hook's window right away; the ticker takes over from
	// here
	err := d.signaler.Heartbeat(action)
	if err != nil {
		d.log.WithField("err", err).Error("initial heartbeat failed, continuing")
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.heartbeatLoop(action, stop)
	}()

	err = d.Cleanup()
	if err != nil {
		d.log.WithField("err", err).Error("cleanup reported failures, completing anyway")
	}

	close(stop)
	wg.Wait()

	completeErr := d.signaler.Complete(action)
	if completeErr != nil {
		d.log.WithField("err", completeErr).Error("failed to complete lifecycle action")
	}

	d.setState(StateTeardown)
	err = d.queue.Teardown()
	if err != nil {
		d.log.WithField("err", err).Error("failed to tear down queue")
	}

	d.setState(StateDone)
	d.notify(fmt.Sprintf("Cleanup finished on *%s*, terminating :boom:", d.instanceID))

	return completeErr
}

// heartbeatLoop records a heartbeat every interval until stopped.
// Failures wait for the next tick rather than retrying inline.
func (d *Daemon) heartbeatLoop(action *shudder.AutoscalingLifecycleAction, stop <-chan struct{}) {
	ticker := time.NewTicker(d.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			err := d.signaler.Heartbeat(action)
			if err != nil {
				d.log.WithField("err", err).Error("heartbeat failed, will retry at next interval")
			}
		}
	}
}

func (d *Daemon) notify(msg string) {
	for _, n := range d.notifiers {
		err := n.Notify(d.cfg.SlackChannel, msg)
		if err != nil {
			d.log.WithField("err", err).Error("failed to send notification")
		}
	}
}
