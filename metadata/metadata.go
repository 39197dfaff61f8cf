package metadata

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/sirupsen/logrus"

	"github.com/donparapidos/shudder"
)

// Resolver looks up this instance's own id from the EC2 instance
// metadata service.  The id is stable for the process lifetime, so
// callers are expected to resolve once at startup and hold on to it.
type Resolver struct {
	ec2m *ec2metadata.EC2Metadata
	log  *logrus.Logger
}

// NewResolver builds a Resolver on top of the given session (or any
// client.ConfigProvider)
func NewResolver(p client.ConfigProvider, log *logrus.Logger) *Resolver {
	return &Resolver{
		ec2m: ec2metadata.New(p),
		log:  log,
	}
}

// InstanceID fetches the instance id from the metadata service
func (r *Resolver) InstanceID() (string, error) {
	id, err := r.ec2m.GetMetadata("instance-id")
	if err != nil {
		r.log.WithField("err", err).Error("failed to fetch instance id from metadata service")
		return "", fmt.Errorf("%w: %s", shudder.ErrMetadataUnavailable, err)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: metadata service returned an empty instance id", shudder.ErrMetadataUnavailable)
	}

	r.log.WithField("instance_id", id).Info("resolved own instance id")
	return id, nil
}
