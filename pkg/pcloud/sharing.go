package pcloud

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// Permission is the pCloud share permission bitmask.
type Permission uint32

const (
	PermissionRead   Permission = 0
	PermissionCreate Permission = 1
	PermissionModify Permission = 2
	PermissionDelete Permission = 4

	// PermissionFull grants create, modify and delete.
	PermissionFull = PermissionCreate | PermissionModify | PermissionDelete
)

// ShareGrant records one successful share of a folder with a recipient.
type ShareGrant struct {
	Path        string
	FolderID    uint64
	Email       string
	Permissions Permission
}

// ShareFailure records one recipient that could not be granted access.
type ShareFailure struct {
	Path  string
	Email string
	Err   error
}

// ShareReport summarizes a share fan-out. Per-recipient failures are
// independent; a failed recipient never invalidates sibling grants.
type ShareReport struct {
	Granted []ShareGrant
	Failed  []ShareFailure
}

// Err collapses the per-recipient failures into one error for logging,
// or nil if every recipient was granted access.
func (r *ShareReport) Err() error {
	var result *multierror.Error
	for _, f := range r.Failed {
		result = multierror.Append(result,
			fmt.Errorf("sharing %q with %s: %w", f.Path, f.Email, f.Err))
	}
	return result.ErrorOrNil()
}

// ShareService grants folder access to recipients by email.
type ShareService struct {
	client  *Client
	folders *FolderService
	logger  hclog.Logger
}

// NewShareService creates a share service. folders is used to resolve
// folder IDs from paths.
func NewShareService(client *Client, folders *FolderService, logger hclog.Logger) *ShareService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ShareService{client: client, folders: folders, logger: logger}
}

// Share grants one recipient access to the folder at path. The folder
// must already exist; its ID is resolved first.
func (s *ShareService) Share(ctx context.Context, path, email string, perms Permission) (ShareGrant, error) {
	folderID, err := s.folders.FolderID(ctx, path)
	if err != nil {
		return ShareGrant{}, fmt.Errorf("resolving folder id: %w", err)
	}

	params := url.Values{}
	params.Set("folderid", strconv.FormatUint(folderID, 10))
	params.Set("mail", email)
	params.Set("permissions", strconv.FormatUint(uint64(perms), 10))

	if _, err := s.client.Call(ctx, "sharefolder", params); err != nil {
		return ShareGrant{}, err
	}

	return ShareGrant{
		Path:        path,
		FolderID:    folderID,
		Email:       email,
		Permissions: perms,
	}, nil
}

// ShareWithAll shares the folder at path with every recipient. Sharing
// is a best-effort fan-out, unlike folder creation: each recipient's
// failure is recorded and logged, and the remaining recipients are
// still attempted.
func (s *ShareService) ShareWithAll(ctx context.Context, path string, emails []string, perms Permission) *ShareReport {
	report := &ShareReport{}
	for _, email := range emails {
		grant, err := s.Share(ctx, path, email, perms)
		if err != nil {
			s.logger.Error("failed to share folder",
				"path", path, "email", email, "error", err)
			report.Failed = append(report.Failed, ShareFailure{
				Path:  path,
				Email: email,
				Err:   err,
			})
			continue
		}
		s.logger.Info("shared folder", "path", path, "email", email,
			"permissions", uint32(perms))
		report.Granted = append(report.Granted, grant)
	}
	return report
}
