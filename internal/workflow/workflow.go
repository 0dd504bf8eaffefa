// Package workflow drives project provisioning: a qualifying tracker
// event leads to a fresh project lookup, an idempotent folder layout in
// pCloud and best-effort share grants for the project members.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mediaops/stagehand/pkg/pcloud"
	"github.com/mediaops/stagehand/pkg/worksection"
)

// TrackerClient fetches project metadata from the tracker.
type TrackerClient interface {
	GetProject(ctx context.Context, projectID int, fallbackTitle string) (*worksection.Project, error)
}

// FolderProvisioner ensures a project folder layout exists.
type FolderProvisioner interface {
	EnsureAll(ctx context.Context, layout pcloud.Layout) error
}

// Sharer grants folder access to a set of recipients.
type Sharer interface {
	ShareWithAll(ctx context.Context, path string, emails []string, perms pcloud.Permission) *pcloud.ShareReport
}

// Workflow is the project-provisioning orchestrator.
type Workflow struct {
	tracker TrackerClient
	folders FolderProvisioner
	sharer  Sharer
	logger  hclog.Logger

	// rootFolder is the parent of all project folders.
	rootFolder string

	// now is the clock used for the dated preview folder.
	now func() time.Time
}

// New creates a workflow. rootFolder defaults to the pCloud package's
// default when empty.
func New(tracker TrackerClient, folders FolderProvisioner, sharer Sharer, rootFolder string, logger hclog.Logger) *Workflow {
	if rootFolder == "" {
		rootFolder = pcloud.DefaultRootFolder
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Workflow{
		tracker:    tracker,
		folders:    folders,
		sharer:     sharer,
		rootFolder: rootFolder,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleEvent processes one tracker event. Events that do not mean "a
// project was created" are a no-op. Fetch and folder-provisioning
// errors propagate and the event is abandoned; share failures were
// already absorbed and logged per recipient.
func (w *Workflow) HandleEvent(ctx context.Context, ev Event) error {
	if !ev.IsProjectCreated() {
		w.logger.Debug("ignoring event", "action", ev.Action, "object_type", ev.Object.Type)
		return nil
	}
	if ev.Object.ID <= 0 {
		return fmt.Errorf("project-created event without a project id")
	}

	project, err := w.tracker.GetProject(ctx, ev.Object.ID, ev.New.Title)
	if err != nil {
		return fmt.Errorf("fetching project %d: %w", ev.Object.ID, err)
	}

	name := FolderSafeName(project.Name)
	if name == "" {
		name = fmt.Sprintf("project_%d", project.ID)
	}

	logArgs := []any{"project_id", project.ID, "project_name", name}
	if project.DateStart != nil && project.DateEnd != nil {
		logArgs = append(logArgs,
			"date_start", project.DateStart.Format("2006-01-02"),
			"date_end", project.DateEnd.Format("2006-01-02"))
	}
	w.logger.Info("provisioning project", logArgs...)

	layout := pcloud.ProjectLayout(w.rootFolder, name, w.now())
	if err := w.folders.EnsureAll(ctx, layout); err != nil {
		return fmt.Errorf("provisioning folders for project %d: %w", project.ID, err)
	}

	if len(project.Emails) == 0 {
		w.logger.Info("project has no members with email, nothing to share",
			"project_id", project.ID)
		return nil
	}

	report := w.sharer.ShareWithAll(ctx, layout.Project, project.Emails, pcloud.PermissionFull)
	if err := report.Err(); err != nil {
		w.logger.Warn("some share grants failed",
			"project_id", project.ID,
			"granted", len(report.Granted),
			"failed", len(report.Failed),
			"error", err)
	} else {
		w.logger.Info("shared project folder",
			"project_id", project.ID, "recipients", len(report.Granted))
	}
	return nil
}
