package signing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ZebulonRouseFrantzich/zign/internal/signpath"
)

// DefaultPollInterval is the delay between status polls.
const DefaultPollInterval = 5 * time.Second

// Options configures a signing run.
type Options struct {
	ProjectSlug               string
	SigningPolicySlug         string
	ArtifactConfigurationSlug string
	Description               string

	// Parameters are custom key/value pairs forwarded on every submit.
	Parameters map[string]string

	// OutputDir receives the signed artifacts. Empty means each signed
	// file replaces its original in place.
	OutputDir string

	// PollInterval is the delay between status polls. It is not the
	// transport's retry interval; the two are tuned independently.
	PollInterval time.Duration
}

// Manager orchestrates signing for a set of targets, one at a time.
type Manager struct {
	client  *signpath.Client
	opts    Options
	sleeper Sleeper
	log     *zap.SugaredLogger
}

// NewManager creates a manager around an API client.
func NewManager(client *signpath.Client, opts Options, log *zap.SugaredLogger) *Manager {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Manager{
		client:  client,
		opts:    opts,
		sleeper: RealSleeper{},
		log:     log,
	}
}

// Run signs every target strictly in order, aborting the whole run on the
// first failure of any kind. Targets are owned by this run and never
// resubmitted within it.
func (m *Manager) Run(ctx context.Context, targets []string) error {
	runID := uuid.New().String()
	m.log.Infow("starting signing run", "run_id", runID, "targets", len(targets))

	for _, target := range targets {
		if err := m.signFile(ctx, target); err != nil {
			return errors.Wrapf(err, "sign %s", target)
		}
	}

	m.log.Infow("signing run finished", "run_id", runID)
	return nil
}

// signFile drives the state machine for a single target.
func (m *Manager) signFile(ctx context.Context, path string) error {
	m.log.Infow("submitting for signing", "file", path)

	request, err := m.client.Submit(ctx, signpath.SubmitOptions{
		ProjectSlug:               m.opts.ProjectSlug,
		SigningPolicySlug:         m.opts.SigningPolicySlug,
		ArtifactConfigurationSlug: m.opts.ArtifactConfigurationSlug,
		Description:               m.opts.Description,
		Parameters:                m.opts.Parameters,
		ArtifactPath:              path,
	})
	if err != nil {
		return errors.Wrap(err, "submit signing request")
	}
	m.log.Infow("signing request submitted", "status_url", request.StatusURL)

	status, err := m.pollUntilFinal(ctx, request)
	if err != nil {
		return err
	}

	if !status.IsCompleted() {
		return &OutcomeError{Status: status.Status, WorkflowStatus: status.WorkflowStatus}
	}
	if status.SignedArtifactLink == "" {
		// The service promised a completed request; a missing link is an
		// infrastructure problem, not a signing outcome.
		return errors.New("completed signing request has no signed artifact link")
	}

	dest := m.resolveOutputPath(path)
	if err := m.install(ctx, status, dest); err != nil {
		return err
	}

	m.log.Infow("successfully signed", "file", dest)
	return nil
}

// pollUntilFinal polls the signing request until it reaches a terminal
// state, sleeping the fixed poll interval between polls.
func (m *Manager) pollUntilFinal(ctx context.Context, request *signpath.SigningRequest) (*signpath.RequestStatus, error) {
	for {
		status, err := m.client.Status(ctx, request)
		if err != nil {
			return nil, errors.Wrap(err, "poll signing request")
		}

		m.log.Infow("signing status", "status", status.Status, "workflow", status.WorkflowStatus)

		if status.IsFinal() {
			return status, nil
		}

		if err := m.sleeper.Sleep(ctx, m.opts.PollInterval); err != nil {
			return nil, errors.Wrap(err, "polling interrupted")
		}
	}
}
