// Package qrcode issues scannable QR artifacts for tickets.
package qrcode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clubgrid/ticketing/internal/config"
	"github.com/google/uuid"
	qr "github.com/skip2/go-qrcode"
)

// Artifact is a scannable reference tied to a ticket id.
type Artifact struct {
	URL     string `json:"url"`
	AssetID string `json:"assetId"`
}

// Issuer renders ticket QR codes into a local asset directory and serves
// them under a public base URL. Stateless; callers treat failures as
// best-effort and never let them abort a committed ticket.
type Issuer struct {
	dir     string
	baseURL string
}

// NewIssuer constructs an Issuer and ensures the asset directory exists.
func NewIssuer(cfg config.AssetsConfig) (*Issuer, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	return &Issuer{dir: cfg.Dir, baseURL: cfg.BaseURL}, nil
}

// Issue renders a QR PNG encoding the ticket id and returns its artifact
// reference.
func (i *Issuer) Issue(ctx context.Context, ticketID string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	assetID := uuid.New().String()
	path := filepath.Join(i.dir, assetID+".png")
	if err := qr.WriteFile(ticketID, qr.Medium, 256, path); err != nil {
		return Artifact{}, fmt.Errorf("render qr code: %w", err)
	}

	return Artifact{
		URL:     fmt.Sprintf("%s/%s.png", i.baseURL, assetID),
		AssetID: assetID,
	}, nil
}

// Remove deletes a previously issued artifact. Missing assets are not an
// error: removal is idempotent.
func (i *Issuer) Remove(ctx context.Context, assetID string) error {
	if assetID == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(i.dir, assetID+".png"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove qr asset: %w", err)
	}
	return nil
}
