package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/mlerena/comprobantes/internal/domain"
	"github.com/mlerena/comprobantes/internal/report"
	"github.com/mlerena/comprobantes/internal/usecase"
	"github.com/mlerena/comprobantes/internal/usecase/mocks"
)

var mayNow = time.Date(2024, time.May, 20, 12, 0, 0, 0, time.UTC)

func exportBody(lines ...string) string {
	header := "Fecha;Tipo;PV;Desde;Hasta;Aut;TipoDoc;NroDoc;Emisor;TC;Moneda;Gravado;NoGravado;Exentas;Otros;IVA;Total"
	return header + "\n" + strings.Join(lines, "\n")
}

func newUseCase(t *testing.T) (*usecase.SyncUseCase, *mocks.MockFetcher, *mocks.MockComprobanteRepository, *mocks.MockNotifier) {
	t.Helper()
	ctrl := gomock.NewController(t)

	fetcher := mocks.NewMockFetcher(ctrl)
	repo := mocks.NewMockComprobanteRepository(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(mayNow).AnyTimes()

	uc := usecase.NewSyncUseCase(fetcher, repo, notifier, clock, zerolog.Nop(), "ARS")
	return uc, fetcher, repo, notifier
}

func TestSyncRunInsertsNewComprobantes(t *testing.T) {
	uc, fetcher, repo, notifier := newUseCase(t)

	fetcher.EXPECT().Fetch(gomock.Any()).Return(exportBody(
		"2024-05-01;3;1;1;1;AUTH1;80;20123456789;ACME;1;ARS;100;0;0;0;10;110",
	), nil)

	wantPeriod := domain.MonthOf(mayNow)
	repo.EXPECT().FindByPeriod(gomock.Any(), wantPeriod).Return(nil, nil)

	var inserted []domain.StoredComprobante
	repo.EXPECT().InsertMany(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, records []domain.StoredComprobante) error {
			inserted = records
			return nil
		})

	var sent *report.Report
	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *report.Report) error {
			sent = r
			return nil
		})

	result, err := uc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Fetched != 1 || result.Stored != 0 || result.New != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(inserted))
	}
	if inserted[0].Type != "Nota de Crédito A" {
		t.Errorf("Type = %q", inserted[0].Type)
	}
	if !inserted[0].Amount.Equal(decimal.NewFromInt(-110)) {
		t.Errorf("Amount = %s, want -110 (credit notes negate the total)", inserted[0].Amount)
	}
	if sent == nil || !strings.Contains(sent.Markdown(), "Nota de Crédito A") {
		t.Errorf("report should list the new record")
	}
}

func TestSyncRunSuppressesDuplicates(t *testing.T) {
	uc, fetcher, repo, notifier := newUseCase(t)

	fetcher.EXPECT().Fetch(gomock.Any()).Return(exportBody(
		"2024-05-01;1;1;1;1;AUTH1;80;20123456789;ACME;1;ARS;100;0;0;0;21;121",
	), nil)

	stored := []domain.StoredComprobante{{
		ID:         7,
		Date:       time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		Type:       "Factura A",
		IssuerName: "ACME",
		Amount:     decimal.NewFromInt(121),
	}}
	repo.EXPECT().FindByPeriod(gomock.Any(), gomock.Any()).Return(stored, nil)
	// No InsertMany expectation: inserting on a fully duplicate run is a bug.

	var sent *report.Report
	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, r *report.Report) error {
			sent = r
			return nil
		})

	result, err := uc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.New != 0 {
		t.Errorf("New = %d, want 0", result.New)
	}
	if !strings.Contains(sent.Markdown(), "No hay comprobantes nuevos.") {
		t.Errorf("report should carry the no-new marker")
	}
}

func TestSyncRunSortsScrapedByIssueDate(t *testing.T) {
	uc, fetcher, repo, notifier := newUseCase(t)

	fetcher.EXPECT().Fetch(gomock.Any()).Return(exportBody(
		"2024-05-20;1;1;2;2;B;80;1;LATE;1;ARS;0;0;0;0;0;200",
		"2024-05-01;1;1;1;1;A;80;1;EARLY;1;ARS;0;0;0;0;0;100",
	), nil)
	repo.EXPECT().FindByPeriod(gomock.Any(), gomock.Any()).Return(nil, nil)

	var inserted []domain.StoredComprobante
	repo.EXPECT().InsertMany(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, records []domain.StoredComprobante) error {
			inserted = records
			return nil
		})
	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	if _, err := uc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(inserted) != 2 || inserted[0].IssuerName != "EARLY" || inserted[1].IssuerName != "LATE" {
		t.Errorf("inserts not sorted by issue date: %+v", inserted)
	}
}

func TestSyncRunFetchFailureAbortsBeforeStore(t *testing.T) {
	uc, fetcher, _, _ := newUseCase(t)

	fetcher.EXPECT().Fetch(gomock.Any()).Return("", domain.ErrSourceUnavailable)

	result, err := uc.Run(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
}

func TestSyncRunMalformedExportAborts(t *testing.T) {
	uc, fetcher, _, _ := newUseCase(t)

	fetcher.EXPECT().Fetch(gomock.Any()).Return(exportBody("2024-05-01;3;1"), nil)

	_, err := uc.Run(context.Background())
	if !errors.Is(err, domain.ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestSyncRunInsertFailureSkipsNotification(t *testing.T) {
	uc, fetcher, repo, _ := newUseCase(t)

	fetcher.EXPECT().Fetch(gomock.Any()).Return(exportBody(
		"2024-05-01;1;1;1;1;A;80;1;ACME;1;ARS;0;0;0;0;0;100",
	), nil)
	repo.EXPECT().FindByPeriod(gomock.Any(), gomock.Any()).Return(nil, nil)
	repo.EXPECT().InsertMany(gomock.Any(), gomock.Any()).Return(domain.ErrStorage)

	result, err := uc.Run(context.Background())
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result after storage failure, got %+v", result)
	}
}

func TestSyncRunNotificationFailureKeepsInserts(t *testing.T) {
	uc, fetcher, repo, notifier := newUseCase(t)

	fetcher.EXPECT().Fetch(gomock.Any()).Return(exportBody(
		"2024-05-01;1;1;1;1;A;80;1;ACME;1;ARS;0;0;0;0;0;100",
	), nil)
	repo.EXPECT().FindByPeriod(gomock.Any(), gomock.Any()).Return(nil, nil)
	repo.EXPECT().InsertMany(gomock.Any(), gomock.Any()).Return(nil)
	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(domain.ErrNotification)

	result, err := uc.Run(context.Background())
	if !errors.Is(err, domain.ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
	// Persistence stands: the result reports what was written.
	if result == nil {
		t.Fatal("expected a result even when delivery fails")
	}
	if result.New != 1 {
		t.Errorf("New = %d, want 1", result.New)
	}
	if !errors.Is(result.NotificationErr, domain.ErrNotification) {
		t.Errorf("NotificationErr = %v", result.NotificationErr)
	}
}

func TestSyncRunTwoRunsEndToEnd(t *testing.T) {
	// Run 1 against an empty store inserts everything; run 2 with the
	// same export and the now-populated store inserts nothing.
	body := exportBody(
		"2024-05-01;3;1;1;1;AUTH1;80;20123456789;ACME;1;ARS;100;0;0;0;10;110",
		"2024-05-02;1;1;2;2;AUTH2;80;30111222333;GLOBEX;1;ARS;100;0;0;0;21;121",
	)

	var persisted []domain.StoredComprobante

	run := func(t *testing.T) *usecase.RunResult {
		uc, fetcher, repo, notifier := newUseCase(t)
		fetcher.EXPECT().Fetch(gomock.Any()).Return(body, nil)
		repo.EXPECT().FindByPeriod(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, domain.Period) ([]domain.StoredComprobante, error) {
				return persisted, nil
			})
		repo.EXPECT().InsertMany(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, records []domain.StoredComprobante) error {
				persisted = append(persisted, records...)
				return nil
			}).AnyTimes()
		notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

		result, err := uc.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result
	}

	first := run(t)
	if first.New != 2 || len(persisted) != 2 {
		t.Fatalf("run 1: New = %d, persisted = %d", first.New, len(persisted))
	}

	second := run(t)
	if second.New != 0 || len(persisted) != 2 {
		t.Errorf("run 2: New = %d, persisted = %d, want full duplicate suppression",
			second.New, len(persisted))
	}
}
