// Package store persists local records with gorm and adapts them to
// sforce.Record so they can be pulled from and pushed to model-backed
// resources.
package store

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Contact is a local copy of a CRM contact.
type Contact struct {
	ID        uint   `gorm:"primaryKey"`
	FirstName string `gorm:"size:80"`
	LastName  string `gorm:"size:80"`
	Email     string `gorm:"size:255"`
	// RemoteID is empty until the contact has been pushed.
	RemoteID  string `gorm:"size:18;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactFields maps the Salesforce Contact fields to Contact columns.
func ContactFields() sforce.FieldMap {
	return sforce.FieldMapFromAttrs("first_name", "last_name", "email")
}

// Open opens the sqlite database at dsn and migrates the models. A nil log
// silences gorm.
func Open(dsn string, log hclog.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{}
	if log != nil {
		gormConfig.Logger = NewGormLogger(log.Named("gorm"))
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.AutoMigrate(&Contact{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// FindContact loads the contact with the given primary key.
func FindContact(ctx context.Context, db *gorm.DB, id uint) (*Contact, error) {
	contact := &Contact{}

	result := db.WithContext(ctx).Limit(1).Find(contact, id)
	if result.Error != nil {
		return nil, fmt.Errorf("loading contact %d: %w", id, result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: contact %d", constants.ErrRecordNotFound, id)
	}

	return contact, nil
}

// ListContacts returns every contact ordered by primary key.
func ListContacts(ctx context.Context, db *gorm.DB) ([]Contact, error) {
	var contacts []Contact

	err := db.WithContext(ctx).Order("id").Find(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}

	return contacts, nil
}

// CreateContact inserts contact and fills in its primary key.
func CreateContact(ctx context.Context, db *gorm.DB, contact *Contact) error {
	err := db.WithContext(ctx).Create(contact).Error
	if err != nil {
		return fmt.Errorf("creating contact: %w", err)
	}

	return nil
}

// Record exposes the columns of a gorm model as record attributes.
type Record struct {
	db     *gorm.DB
	model  any
	value  reflect.Value
	schema *schema.Schema
}

var _ sforce.Record = (*Record)(nil)

// Bind adapts model, a pointer to a gorm model struct. Attributes are column
// names (first_name) or Go field names (FirstName).
func Bind(db *gorm.DB, model any) (*Record, error) {
	value := reflect.ValueOf(model)
	if value.Kind() != reflect.Pointer || value.IsNil() || value.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %T", constants.ErrNotAStructModel, model)
	}

	stmt := &gorm.Statement{DB: db}

	err := stmt.Parse(model)
	if err != nil {
		return nil, fmt.Errorf("parsing model %T: %w", model, err)
	}

	return &Record{db: db, model: model, value: value, schema: stmt.Schema}, nil
}

// Model returns the bound model.
func (r *Record) Model() any {
	return r.model
}

func (r *Record) field(attr string) (*schema.Field, error) {
	field := r.schema.LookUpField(attr)
	if field == nil {
		return nil, fmt.Errorf("%w: %s has no attribute %s", sforce.ErrMissingAttribute, r.schema.Name, attr)
	}

	return field, nil
}

// Get implements sforce.Record.
func (r *Record) Get(attr string) (any, error) {
	field, err := r.field(attr)
	if err != nil {
		return nil, err
	}

	value, _ := field.ValueOf(context.Background(), r.value)

	return value, nil
}

// Set implements sforce.Record.
func (r *Record) Set(attr string, value any) error {
	field, err := r.field(attr)
	if err != nil {
		return err
	}

	err = field.Set(context.Background(), r.value, value)
	if err != nil {
		return fmt.Errorf("setting %s.%s: %w", r.schema.Name, attr, err)
	}

	return nil
}

// Save implements sforce.Record.
func (r *Record) Save(ctx context.Context) error {
	err := r.db.WithContext(ctx).Save(r.model).Error
	if err != nil {
		return fmt.Errorf("saving %s: %w", r.schema.Name, err)
	}

	return nil
}
