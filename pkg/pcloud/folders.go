package pcloud

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultRootFolder is where project folders are provisioned when the
// configuration does not override it.
const DefaultRootFolder = "/WorksectionProjects"

const (
	previewFolderName     = "Preview"
	finalRenderFolderName = "Final_render"
)

// Layout is the canonical folder set for one project. Creation order is
// fixed: root, then project, then preview, then final render, because a
// path's parent must exist before children are addressed and the
// project folder ID used for sharing is resolved from the project path.
type Layout struct {
	Root        string
	Project     string
	Preview     string
	FinalRender string
}

// ProjectLayout computes the layout for a project name under root. The
// preview subfolder is dated with the provisioning day.
func ProjectLayout(root, projectName string, now time.Time) Layout {
	if root == "" {
		root = DefaultRootFolder
	}
	project := fmt.Sprintf("%s/%s", root, projectName)
	return Layout{
		Root:        root,
		Project:     project,
		Preview:     fmt.Sprintf("%s/%s/%s", project, previewFolderName, now.Format("2006-01-02")),
		FinalRender: fmt.Sprintf("%s/%s", project, finalRenderFolderName),
	}
}

// Ordered returns the paths in creation order.
func (l Layout) Ordered() []string {
	return []string{l.Root, l.Project, l.Preview, l.FinalRender}
}

// FolderService provisions folders idempotently.
type FolderService struct {
	client *Client
	logger hclog.Logger
}

// NewFolderService creates a folder service on top of client.
func NewFolderService(client *Client, logger hclog.Logger) *FolderService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FolderService{client: client, logger: logger}
}

// EnsureFolder creates path if it does not exist yet and returns its
// folder ID. An already-existing path is a success, not an error.
func (s *FolderService) EnsureFolder(ctx context.Context, path string) (uint64, error) {
	params := url.Values{}
	params.Set("path", path)

	resp, err := s.client.Call(ctx, "createfolderifnotexists", params)
	if err != nil {
		return 0, err
	}

	var folderID uint64
	if resp.Metadata != nil {
		folderID = resp.Metadata.FolderID
	}
	s.logger.Debug("ensured folder", "path", path, "folder_id", folderID)
	return folderID, nil
}

// EnsureAll creates every path in layout, strictly in dependency order.
// The first failure aborts the remaining creations: a partially shared
// layout would mislead members, so there is no partial-success
// tolerance here.
func (s *FolderService) EnsureAll(ctx context.Context, layout Layout) error {
	for _, path := range layout.Ordered() {
		if _, err := s.EnsureFolder(ctx, path); err != nil {
			return fmt.Errorf("ensuring folder %q: %w", path, err)
		}
	}
	return nil
}

// FolderID resolves the provider-side folder ID for an existing path.
func (s *FolderService) FolderID(ctx context.Context, path string) (uint64, error) {
	params := url.Values{}
	params.Set("path", path)

	resp, err := s.client.Call(ctx, "listfolder", params)
	if err != nil {
		return 0, err
	}
	if resp.Metadata == nil {
		return 0, &RemoteError{
			Method:  "listfolder",
			Code:    resp.Result,
			Message: fmt.Sprintf("no metadata for path %q", path),
		}
	}
	return resp.Metadata.FolderID, nil
}
