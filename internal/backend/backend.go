// Package backend defines the vendor-neutral video backend contract.
//
// A backend hosts the actual video bytes and the transcode pipeline. The
// rest of the service only ever sees an opaque locator string; what it
// means (a Bunny GUID, a Cloudflare Stream UID, an object key) is the
// driver's business.
package backend

import (
	"context"
	"time"
)

// ProvisionParams describe the content item being created on the vendor.
type ProvisionParams struct {
	Title       string
	Filename    string
	ContentType string
	UploadTTL   time.Duration
}

// UploadSlot is a time-limited direct upload target for the admin client.
// StoragePath is set only when the bytes land in our own staging bucket
// first; vendors that ingest directly leave it empty.
type UploadSlot struct {
	URL         string
	Method      string
	Headers     map[string]string
	ExpiresAt   time.Time
	StoragePath string
}

// Provisioned is the result of creating a remote container.
type Provisioned struct {
	Locator string
	Upload  *UploadSlot
}

// Status is a vendor status normalized onto the platform's closed enum
// (store.StatusPending and friends). Progress is the vendor's transcode
// percentage, 0-100. DurationSeconds is set once the vendor reports it.
type Status struct {
	State           string
	Progress        int32
	DurationSeconds *int32
}

// VideoBackend is implemented by each vendor driver. All methods return
// coded errors; vendor transport failures come back as CodeVendor.
type VideoBackend interface {
	// Name identifies the driver in logs and metrics.
	Name() string

	// Provision creates the remote container for a new content item and,
	// when the vendor supports it, an upload slot in the same call.
	Provision(ctx context.Context, params ProvisionParams) (*Provisioned, error)

	// CompleteUpload finalizes an upload the admin client reported done
	// and returns the staged object size in bytes. Drivers that ingest
	// directly treat this as a no-op and report size zero.
	CompleteUpload(ctx context.Context, locator, storagePath string) (int64, error)

	// IngestFromURL provisions a container whose source the vendor pulls
	// from a public URL instead of a direct upload. Drivers without pull
	// ingestion return CodeInvalidArgument.
	IngestFromURL(ctx context.Context, params ProvisionParams, sourceURL string) (string, error)

	// ProbeStatus reads the vendor's processing state for the locator.
	ProbeStatus(ctx context.Context, locator string) (*Status, error)

	// PlaybackURL returns a time-limited playback reference.
	PlaybackURL(ctx context.Context, locator string, ttl time.Duration) (string, error)

	// Delete removes the remote container and its assets.
	Delete(ctx context.Context, locator string) error
}
