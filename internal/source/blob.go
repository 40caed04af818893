package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/weval-org/dtef/internal/models"
	"golang.org/x/sync/errgroup"
)

// AzureOptions locates results stored in an Azure Blob Storage container.
type AzureOptions struct {
	// AccountURL is the storage account endpoint, for example
	// https://myaccount.blob.core.windows.net. A URL carrying a SAS query
	// string is used without further credentials.
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`
	// Prefix restricts the listing to blob names starting with it.
	Prefix string `yaml:"prefix,omitempty"`
}

// blobStore is the slice of the Blob Storage API the loader needs.
type blobStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// BlobSource reads results files from a blob container.
type BlobSource struct {
	store  blobStore
	prefix string
	opts   Options
}

// NewBlobSource connects to the container in az. Without a SAS token in the
// account URL it authenticates with azidentity.DefaultAzureCredential.
func NewBlobSource(az AzureOptions, opts Options) (*BlobSource, error) {
	if az.AccountURL == "" || az.Container == "" {
		return nil, errors.New("azblob source requires account_url and container")
	}
	if hasSAS(az.AccountURL) {
		client, err := azblob.NewClientWithNoCredential(az.AccountURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating blob client: %w", err)
		}
		return newBlobSource(&azureContainer{client: client, container: az.Container}, az.Prefix, opts), nil
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure credential: %w", err)
	}
	return NewBlobSourceWithCredential(az, cred, opts)
}

// NewBlobSourceWithCredential is NewBlobSource with an explicit credential.
func NewBlobSourceWithCredential(az AzureOptions, cred azcore.TokenCredential, opts Options) (*BlobSource, error) {
	client, err := azblob.NewClient(az.AccountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return newBlobSource(&azureContainer{client: client, container: az.Container}, az.Prefix, opts), nil
}

func newBlobSource(store blobStore, prefix string, opts Options) *BlobSource {
	return &BlobSource{store: store, prefix: prefix, opts: opts}
}

// Records downloads every results blob under the prefix. A missing
// container yields an empty batch.
func (s *BlobSource) Records(ctx context.Context) ([]*models.EvaluationRunRecord, error) {
	names, err := s.store.List(ctx, s.prefix)
	if err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return []*models.EvaluationRunRecord{}, nil
		}
		return nil, fmt.Errorf("listing results blobs: %w", err)
	}

	var files []string
	for _, n := range names {
		if IsRecordFile(n) {
			files = append(files, n)
		}
	}
	sort.Strings(files)

	log := s.opts.logger()
	perFile := make([][]*models.EvaluationRunRecord, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency())
	for i, name := range files {
		g.Go(func() error {
			data, err := s.download(gCtx, name)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				log.Warn("skipping unreadable results blob", "blob", name, "error", err)
				return nil
			}
			perFile[i] = s.opts.loadFile(name, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading results blobs: %w", err)
	}

	out := []*models.EvaluationRunRecord{}
	for _, recs := range perFile {
		out = append(out, recs...)
	}
	log.Debug("loaded results", "prefix", s.prefix, "blobs", len(files), "records", len(out))
	return out, nil
}

func (s *BlobSource) download(ctx context.Context, name string) ([]byte, error) {
	body, err := s.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return readBody(name, body)
}

// azureContainer adapts an azblob.Client bound to one container.
type azureContainer struct {
	client    *azblob.Client
	container string
}

func (c *azureContainer) List(ctx context.Context, prefix string) ([]string, error) {
	var opts *azblob.ListBlobsFlatOptions
	if prefix != "" {
		opts = &azblob.ListBlobsFlatOptions{Prefix: &prefix}
	}
	var names []string
	pager := c.client.NewListBlobsFlatPager(c.container, opts)
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if resp.Segment == nil {
			continue
		}
		for _, item := range resp.Segment.BlobItems {
			if item != nil && item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (c *azureContainer) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := c.client.DownloadStream(ctx, c.container, name, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func hasSAS(accountURL string) bool {
	u, err := url.Parse(accountURL)
	if err != nil {
		return false
	}
	return strings.Contains(u.RawQuery, "sig=")
}
