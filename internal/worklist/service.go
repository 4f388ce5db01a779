package worklist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tapcellar/tapcellar-backend/pkg/db/models"
	"github.com/tapcellar/tapcellar-backend/pkg/enums"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

// MaxSlots is the number of packaging columns a worklist row carries. The
// product-creation sheet downstream has exactly three; further packagings of
// the same product are dropped with an audit note in the row.
const MaxSlots = 3

var (
	errRepoRequired   = errors.New("worklist service: repository is required")
	errLoggerRequired = errors.New("worklist service: logger is required")
)

type worklistRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
}

// Service builds the product-creation worklist from an invoice's unmatched
// lines.
type Service interface {
	Build(ctx context.Context, invoiceID uuid.UUID) (*WorklistDTO, error)
	BuildCSV(ctx context.Context, invoiceID uuid.UUID) ([]byte, error)
}

type service struct {
	repo   worklistRepository
	logger *logger.Logger
}

func NewService(repo worklistRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errRepoRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &service{repo: repo, logger: logg}, nil
}

// Build groups every line that did not match into one row per distinct
// product. Grouping key is supplier, collaborator, product name, and ABV;
// each distinct format/pack/volume combination fills one packaging slot.
func (s *service) Build(ctx context.Context, invoiceID uuid.UUID) (*WorklistDTO, error) {
	invoice, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading invoice")
	}

	type group struct {
		row      WorklistRowDTO
		slotKeys map[string]bool
		dropped  int
		first    int
	}
	groups := map[string]*group{}

	for i := range invoice.LineItems {
		line := &invoice.LineItems[i]
		if !includeInWorklist(line.Status) {
			continue
		}

		key := groupKey(line)
		g, ok := groups[key]
		if !ok {
			g = &group{
				row: WorklistRowDTO{
					Supplier:     line.SupplierName,
					Collaborator: line.Collaborator,
					ProductName:  line.ProductName,
					ABV:          line.ABV,
					Status:       line.Status.Label(),
				},
				slotKeys: map[string]bool{},
				first:    line.Position,
			}
			groups[key] = g
		}

		slot := PackagingSlot{
			Format:   line.Format,
			PackSize: line.PackSize,
			Volume:   line.Volume,
			Price:    line.UnitPrice,
			Create:   false,
		}
		slotKey := slot.key()
		if g.slotKeys[slotKey] {
			continue
		}
		if len(g.row.Slots) >= MaxSlots {
			g.dropped++
			continue
		}
		g.slotKeys[slotKey] = true
		g.row.Slots = append(g.row.Slots, slot)
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].first < ordered[j].first })

	dto := &WorklistDTO{InvoiceID: invoice.ID, Rows: make([]WorklistRowDTO, 0, len(ordered))}
	for _, g := range ordered {
		g.row.DroppedSlots = g.dropped
		dto.Rows = append(dto.Rows, g.row)
		if g.dropped > 0 {
			s.logger.Warn(s.logger.WithInvoiceID(ctx, invoice.ID.String()),
				fmt.Sprintf("worklist row %q dropped %d packaging(s) beyond slot limit", g.row.ProductName, g.dropped))
		}
	}
	return dto, nil
}

// BuildCSV renders the worklist in the product-creation sheet layout.
func (s *service) BuildCSV(ctx context.Context, invoiceID uuid.UUID) ([]byte, error) {
	dto, err := s.Build(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return renderCSV(dto)
}

// includeInWorklist keeps every line without a confirmed match, pending ones
// included, so a worklist pulled before reconciliation still shows the whole
// invoice.
func includeInWorklist(status enums.ReconciliationStatus) bool {
	return status != enums.ReconciliationMatched
}

func groupKey(line *models.LineItem) string {
	collab := ""
	if line.Collaborator != nil {
		collab = *line.Collaborator
	}
	abv := ""
	if line.ABV != nil {
		abv = *line.ABV
	}
	return strings.ToLower(strings.Join([]string{line.SupplierName, collab, line.ProductName, abv}, "\x1f"))
}
