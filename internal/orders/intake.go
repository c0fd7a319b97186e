package orders

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/wontivero/infotechLibros/internal/messaging"
	"github.com/wontivero/infotechLibros/internal/models"
	"github.com/wontivero/infotechLibros/internal/store"
	"golang.org/x/sync/errgroup"
)

// MaxCopies caps a single clone batch.
const MaxCopies = 50

// trackingAttempts bounds code regeneration when a code is already taken.
const trackingAttempts = 5

// IntakeForm is the raw intake form. Amounts stay strings until validated so
// a blank deposit can be told apart from "0".
type IntakeForm struct {
	CustomerName  string `form:"customer_name" validate:"max=120"`
	CustomerPhone string `form:"customer_phone" validate:"required,max=40"`
	Recipient     string `form:"recipient" validate:"required,max=120"`
	Institution   string `form:"institution" validate:"max=120"`
	Grade         string `form:"grade" validate:"max=40"`
	BookTitle     string `form:"book_title" validate:"required,max=200"`
	BookID        string `form:"book_id"`
	Deposit       string `form:"deposit" validate:"required,amount"`
	Total         string `form:"total" validate:"required,amount"`
	Clone         bool   `form:"clone"`
	Copies        int    `form:"copies"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := parseAmount(fl.Field().String())
		return err == nil
	})
	return v
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", d)
	}
	return d, nil
}

func (f *IntakeForm) normalize() {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.CustomerPhone = messaging.LocalPhone(f.CustomerPhone)
	f.Recipient = strings.TrimSpace(f.Recipient)
	f.Institution = strings.TrimSpace(f.Institution)
	f.Grade = strings.TrimSpace(f.Grade)
	f.BookTitle = strings.TrimSpace(f.BookTitle)
	f.BookID = strings.TrimSpace(f.BookID)
	f.Deposit = strings.TrimSpace(f.Deposit)
	f.Total = strings.TrimSpace(f.Total)
}

// Count is the number of orders the form produces.
func (f IntakeForm) Count() int {
	if f.Clone {
		return f.Copies
	}
	return 1
}

// Validate checks the form and returns the parsed amounts.
func (f IntakeForm) Validate() (deposit, total decimal.Decimal, err error) {
	f.normalize()
	fields := make(map[string]string)

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return deposit, total, err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}

	if f.Clone && (f.Copies < 1 || f.Copies > MaxCopies) {
		fields["copies"] = fmt.Sprintf("must be between 1 and %d", MaxCopies)
	}

	_, badDeposit := fields["deposit"]
	_, badTotal := fields["total"]
	if !badDeposit && !badTotal {
		deposit, _ = parseAmount(f.Deposit)
		total, _ = parseAmount(f.Total)
		if deposit.GreaterThan(total) {
			fields["deposit"] = fmt.Sprintf("deposit $%s is greater than total $%s", deposit, total)
		}
	}

	if len(fields) > 0 {
		return decimal.Zero, decimal.Zero, &ValidationError{Fields: fields}
	}
	return deposit, total, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "amount":
		return "must be a non-negative amount"
	case "max":
		return "is too long"
	default:
		return "is invalid"
	}
}

// Repo is the slice of the store order intake and the board need.
type Repo interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.Status) error
}

type Service struct {
	repo    Repo
	newCode func() (string, error)
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo, newCode: NewTrackingCode}
}

// IntakeResult is what the desk shows after a successful intake.
type IntakeResult struct {
	Orders   []*models.Order
	Message  string
	DeepLink string // empty when there is no phone to send to
}

// Create validates the form and writes one order per copy. The writes run
// concurrently and Create waits for all of them. When only some succeed the
// error is a *PartialFailureError and the written orders are kept.
func (s *Service) Create(ctx context.Context, form IntakeForm) (*IntakeResult, error) {
	form.normalize()
	deposit, total, err := form.Validate()
	if err != nil {
		return nil, err
	}

	n := form.Count()
	batch := make([]*models.Order, n)
	for i := range batch {
		batch[i] = buildOrder(form, i+1, n, deposit, total)
	}

	errs := make([]error, n)
	var g errgroup.Group
	for i, o := range batch {
		g.Go(func() error {
			errs[i] = s.insert(ctx, o)
			return errs[i]
		})
	}
	// every clone is inspected below
	_ = g.Wait()

	var perr PartialFailureError
	for i, o := range batch {
		if errs[i] != nil {
			perr.Failed = append(perr.Failed, CloneFailed{Index: i + 1, Err: errs[i]})
			continue
		}
		perr.Created = append(perr.Created, CloneCreated{Index: i + 1, TrackingCode: o.TrackingCode})
	}
	if len(perr.Failed) == n {
		return nil, fmt.Errorf("create order: %w", errs[0])
	}
	if len(perr.Failed) > 0 {
		return nil, &perr
	}

	res := &IntakeResult{Orders: batch}
	if n > 1 {
		res.Message = messaging.BatchConfirmation(form.CustomerName, form.BookTitle, n)
	} else {
		o := batch[0]
		res.Message = messaging.OrderConfirmation(form.CustomerName, form.BookTitle, o.Referent, o.TrackingCode, o.Balance)
	}
	res.DeepLink = messaging.Link(form.CustomerPhone, res.Message)
	return res, nil
}

func (s *Service) insert(ctx context.Context, o *models.Order) error {
	for attempt := 0; attempt < trackingAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return fmt.Errorf("tracking code: %w", err)
		}
		o.TrackingCode = code
		err = s.repo.CreateOrder(ctx, o)
		if errors.Is(err, store.ErrDuplicateTracking) {
			continue
		}
		return err
	}
	return fmt.Errorf("no free tracking code after %d attempts: %w", trackingAttempts, store.ErrDuplicateTracking)
}

func buildOrder(f IntakeForm, i, n int, deposit, total decimal.Decimal) *models.Order {
	referent := f.Recipient
	if n > 1 {
		referent = fmt.Sprintf("%s (%d)", f.Recipient, i)
	}
	return &models.Order{
		Customer:    models.Customer{Name: f.CustomerName, Phone: f.CustomerPhone},
		Referent:    referent,
		Status:      models.StatusIntake,
		Deposit:     deposit,
		Total:       total,
		Balance:     total.Sub(deposit),
		Description: description(f.BookTitle, f.Grade),
		Detail: models.Detail{
			Recipient:   referent,
			Institution: f.Institution,
			Grade:       f.Grade,
			BookTitle:   f.BookTitle,
			BookID:      f.BookID,
		},
	}
}

func description(title, grade string) string {
	if grade == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, grade)
}

// Advance moves one order exactly one step along the status ring, reading
// its current status from the store first.
func (s *Service) Advance(ctx context.Context, id string) (models.Status, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", makeErr(ErrOrderAbsent)
	}
	if err != nil {
		return "", fmt.Errorf("get order %s: %w", id, err)
	}
	next := o.Status.Next()
	if err := s.repo.UpdateOrderStatus(ctx, id, next); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", makeErr(ErrOrderAbsent)
		}
		return "", fmt.Errorf("advance order %s: %w", id, err)
	}
	return next, nil
}
