package shudder

import (
	"github.com/BurntSushi/toml"
)

// FileConfig is the subset of configuration that can live in a TOML
// file on the instance, typically baked in by the provisioning tool
// that also created the lifecycle hook.  Flags and env vars win over
// anything set here.
type FileConfig struct {
	Region          string            `toml:"region"`
	SQSPrefix       string            `toml:"sqs_prefix"`
	SNSTopic        string            `toml:"sns_topic"`
	QueueTags       map[string]string `toml:"queue_tags"`
	CleanupCommands []string          `toml:"cleanup_commands"`

	HeartbeatInterval int `toml:"heartbeat_interval"`
	VisibilityTimeout int `toml:"visibility_timeout"`
}

// LoadFileConfig reads and decodes the TOML config file at path
func LoadFileConfig(path string) (*FileConfig, error) {
	cfg := &FileConfig{}
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
