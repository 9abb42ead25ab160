package reconcile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelscan/internal/label"
	"labelscan/internal/reconcile"
)

type fakeEngine struct {
	raw   label.RawText
	err   error
	calls int
}

func (f *fakeEngine) Recognize(ctx context.Context, imagePath string) (label.RawText, error) {
	f.calls++
	return f.raw, f.err
}

type fakeScanner struct {
	code  string
	err   error
	calls int
}

func (f *fakeScanner) Scan(ctx context.Context, imagePath string) (string, error) {
	f.calls++
	return f.code, f.err
}

// model + article + color + barcode
var perfectLabel = label.RawText{
	General: "GAZELLE IE3675 CBLACK/FTWWHT/GUM5 F 42",
	Digits:  "4056015456123",
}

// model + article, no color, no barcode
const halfLabel = "SAMBA OG B75806"

func TestExtract_NoEscalationAtFullScore(t *testing.T) {
	local := &fakeEngine{raw: perfectLabel}
	cloud := &fakeEngine{}

	r := reconcile.New(local, cloud, nil, reconcile.DefaultOptions())
	f, err := r.Extract(context.Background(), "label.jpg")

	require.NoError(t, err)
	assert.Equal(t, 100, f.Score)
	assert.Equal(t, label.StatusOK, f.Status)
	assert.Equal(t, 0, cloud.calls)
}

func TestExtract_EscalatesBelowThreshold(t *testing.T) {
	local := &fakeEngine{raw: label.RawText{General: halfLabel}}
	cloud := &fakeEngine{raw: label.RawText{General: "CORE/WHITE 4056015456123"}}

	r := reconcile.New(local, cloud, nil, reconcile.Options{Threshold: 75, RequireBarcode: false})
	f, err := r.Extract(context.Background(), "label.jpg")

	require.NoError(t, err)
	assert.Equal(t, 1, cloud.calls)
	assert.Equal(t, "SAMBA OG", f.Model)
	assert.Equal(t, "B75806", f.ArticleCode)
	assert.Equal(t, "CORE/WHITE", f.Color)
	assert.Equal(t, "4056015456123", f.Barcode)
	// max(local 50, cloud 50)
	assert.Equal(t, 50, f.Score)
	assert.Equal(t, label.StatusReview, f.Status)
}

func TestExtract_EscalatesForMissingBarcodeOnlyWhenRequired(t *testing.T) {
	noBarcode := "FORUM LOW HQ4327 CLOWHI/FTWWHT/GUM5"

	t.Run("required", func(t *testing.T) {
		local := &fakeEngine{raw: label.RawText{General: noBarcode}}
		cloud := &fakeEngine{raw: label.RawText{Digits: "4056015456123"}}

		f, err := reconcile.New(local, cloud, nil, reconcile.Options{Threshold: 75, RequireBarcode: true}).
			Extract(context.Background(), "label.jpg")

		require.NoError(t, err)
		assert.Equal(t, 1, cloud.calls)
		assert.Equal(t, "4056015456123", f.Barcode)
		assert.Equal(t, 75, f.Score)
		assert.Equal(t, label.StatusOK, f.Status)
	})

	t.Run("optional", func(t *testing.T) {
		local := &fakeEngine{raw: label.RawText{General: noBarcode}}
		cloud := &fakeEngine{}

		f, err := reconcile.New(local, cloud, nil, reconcile.Options{Threshold: 75, RequireBarcode: false}).
			Extract(context.Background(), "label.jpg")

		require.NoError(t, err)
		assert.Equal(t, 0, cloud.calls)
		assert.Equal(t, 75, f.Score)
	})
}

func TestExtract_MergeNeverOverwritesLocalFields(t *testing.T) {
	local := &fakeEngine{raw: label.RawText{General: "SUPERSTAR EG4958"}}
	cloud := &fakeEngine{raw: label.RawText{
		General: "CAMPUS 00s ID7028 CORE/WHITE/GUM5",
		Digits:  "4056015456123",
	}}

	f, err := reconcile.New(local, cloud, nil, reconcile.DefaultOptions()).
		Extract(context.Background(), "label.jpg")

	require.NoError(t, err)
	assert.Equal(t, "SUPERSTAR", f.Model)
	assert.Equal(t, "EG4958", f.ArticleCode)
	assert.Equal(t, "CORE/WHITE/GUM5", f.Color)
	assert.Equal(t, "4056015456123", f.Barcode)
	assert.Equal(t, 100, f.Score)
	assert.Equal(t, label.StatusOK, f.Status)
}

func TestExtract_LocalFailureIsSwallowed(t *testing.T) {
	local := &fakeEngine{err: errors.New("tesseract not installed")}

	f, err := reconcile.New(local, nil, nil, reconcile.DefaultOptions()).
		Extract(context.Background(), "label.jpg")

	require.NoError(t, err)
	assert.Equal(t, label.Fields{Status: label.StatusReview}, f)
}

func TestExtract_CloudFailurePropagates(t *testing.T) {
	cloudErr := errors.New("vision unavailable")
	local := &fakeEngine{raw: label.RawText{General: halfLabel}}
	cloud := &fakeEngine{err: cloudErr}

	_, err := reconcile.New(local, cloud, nil, reconcile.DefaultOptions()).
		Extract(context.Background(), "label.jpg")

	assert.ErrorIs(t, err, cloudErr)
}

func TestExtract_BarcodeScanSupplement(t *testing.T) {
	noBarcode := "FORUM LOW HQ4327 CLOWHI/FTWWHT/GUM5"

	tests := []struct {
		name        string
		scanner     *fakeScanner
		wantBarcode string
		wantScore   int
		wantCloud   int
	}{
		{"ean13", &fakeScanner{code: "4056015456123"}, "4056015456123", 100, 0},
		{"upca", &fakeScanner{code: "885178961234"}, "885178961234", 100, 0},
		{"non numeric", &fakeScanner{code: "ABC-123"}, "", 75, 1},
		{"wrong length", &fakeScanner{code: "12345678"}, "", 75, 1},
		{"scanner error", &fakeScanner{err: errors.New("no barcode")}, "", 75, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := &fakeEngine{raw: label.RawText{General: noBarcode}}
			cloud := &fakeEngine{}

			f, err := reconcile.New(local, cloud, tt.scanner, reconcile.DefaultOptions()).
				Extract(context.Background(), "label.jpg")

			require.NoError(t, err)
			assert.Equal(t, 1, tt.scanner.calls)
			assert.Equal(t, tt.wantBarcode, f.Barcode)
			assert.Equal(t, tt.wantScore, f.Score)
			assert.Equal(t, tt.wantCloud, cloud.calls)
		})
	}
}

func TestExtract_ScannerSkippedWhenBarcodeFound(t *testing.T) {
	local := &fakeEngine{raw: perfectLabel}
	scanner := &fakeScanner{code: "0000000000000"}

	f, err := reconcile.New(local, nil, scanner, reconcile.DefaultOptions()).
		Extract(context.Background(), "label.jpg")

	require.NoError(t, err)
	assert.Equal(t, 0, scanner.calls)
	assert.Equal(t, "4056015456123", f.Barcode)
}

func TestExtract_NoCloudEngineNeverEscalates(t *testing.T) {
	local := &fakeEngine{raw: label.RawText{General: halfLabel}}

	f, err := reconcile.New(local, nil, nil, reconcile.DefaultOptions()).
		Extract(context.Background(), "label.jpg")

	require.NoError(t, err)
	assert.Equal(t, 50, f.Score)
	assert.Equal(t, label.StatusReview, f.Status)
}
