package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bahikhata/backend/internal/app"
	"bahikhata/backend/internal/config"
	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/logger"
	"bahikhata/backend/internal/service"
	"bahikhata/backend/internal/store/memory"
)

// useMemoryApp points every command at one seeded store for the test.
func useMemoryApp(t *testing.T) *service.Service {
	t.Helper()

	nop := logger.Nop()
	repo := memory.NewSeeded()
	svc := service.New(repo, service.Options{Logger: &nop})
	previous := loadApp
	loadApp = func(context.Context) (*app.App, error) {
		return &app.App{Config: config.Config{ImportMaxRows: 100}, Repo: repo, Service: svc}, nil
	}
	t.Cleanup(func() { loadApp = previous })
	return svc
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConvertRateCommand(t *testing.T) {
	out, err := execute(t, "convert-rate", "120", "doz", "pcs")
	require.NoError(t, err)
	assert.Equal(t, "120.00 per DOZ = 10.00 per PCS\n", out)

	out, err = execute(t, "convert-rate", "50", "BOX", "PCS")
	require.NoError(t, err)
	assert.Contains(t, out, "no conversion from BOX to PCS")

	_, err = execute(t, "convert-rate", "-1", "DOZ", "PCS")
	assert.Error(t, err)
}

func TestImportItemsCommand(t *testing.T) {
	svc := useMemoryApp(t)
	path := filepath.Join(t.TempDir(), "items.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,unit,rate\nEraser,PCS,5\nSugar,KG,40\n"), 0o600))

	out, err := execute(t, "import-items", path, "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "2 rows parsed, nothing written\n", out)

	out, err = execute(t, "import-items", path)
	require.NoError(t, err)
	assert.Contains(t, out, "created 1, skipped 1")
	assert.Contains(t, out, `row 3 "Sugar": item already exists`)

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 5)

	_, err = execute(t, "import-items", filepath.Join(t.TempDir(), "items.json"))
	assert.Error(t, err)
}

func TestWeeklyReportCommand(t *testing.T) {
	useMemoryApp(t)

	out, err := execute(t, "weekly-report", "party-sharma")
	require.NoError(t, err)
	assert.Contains(t, out, "Sharma Traders")
	assert.Contains(t, out, "Grand total")
	assert.Contains(t, out, "500.00")

	path := filepath.Join(t.TempDir(), "report.xlsx")
	_, err = execute(t, "weekly-report", "party-sharma", "--format", "xlsx", "--out", path)
	require.NoError(t, err)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	name, err := f.GetCellValue("Weekly Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Sharma Traders", name)

	_, err = execute(t, "weekly-report", "party-sharma", "--format", "pdf")
	assert.Error(t, err)

	_, err = execute(t, "weekly-report", "party-nobody")
	assert.Error(t, err)
}

func TestRefreshInvoiceCommand(t *testing.T) {
	svc := useMemoryApp(t)
	ctx := context.Background()

	invoice, err := svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		PartyID:        "party-sharma",
		InvoiceDate:    time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC),
		BundleQuantity: decimal.NewFromInt(2),
		Lines: []domain.DraftInvoiceLine{
			{ItemID: "item-notebook", Quantity: decimal.NewFromInt(3), Rate: decimal.NewFromInt(40)},
			{ItemID: "item-gel-pen", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(120)},
		},
	})
	require.NoError(t, err)

	out, err := execute(t, "refresh-invoice", invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "invoice is up to date\n", out)

	newRate := decimal.NewFromInt(150)
	_, err = svc.UpdateItem(ctx, "item-gel-pen", domain.ItemUpdateRequest{DefaultRate: &newRate})
	require.NoError(t, err)

	out, err = execute(t, "refresh-invoice", invoice.ID, "--apply", "--actor", "ravi")
	require.NoError(t, err)
	assert.Contains(t, out, "line 2")
	assert.Contains(t, out, "applied 1 updates, new total 470.00")

	logs, err := svc.ListActivityLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "ravi", logs[0].Actor)
}
