// Package patients reads patient records from DynamoDB.
package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/filipinovation/clinic-booking/pkg/logging"
)

var (
	// ErrPatientNotFound is returned when no record exists for the given ID.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrContactMissing is returned when a patient has no usable email address.
	ErrContactMissing = errors.New("patient has no contact email")
)

// Patient is a registered patient of the clinic.
type Patient struct {
	ID        string   `dynamodbav:"patient_id" json:"patient_id"`
	Name      string   `dynamodbav:"name" json:"name"`
	Email     string   `dynamodbav:"email,omitempty" json:"email,omitempty"`
	Phone     string   `dynamodbav:"phone,omitempty" json:"phone,omitempty"`
	Latitude  *float64 `dynamodbav:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `dynamodbav:"longitude,omitempty" json:"longitude,omitempty"`
}

// HasEmail reports whether the patient can receive a confirmation email.
func (p Patient) HasEmail() bool {
	return p.Email != ""
}

// HasCoordinates reports whether the patient registered a location.
func (p Patient) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Store provides access to the patients table.
type Store struct {
	client dynamoAPI
	table  string
	logger *logging.Logger
}

// NewStore creates a patient store backed by DynamoDB.
func NewStore(client dynamoAPI, table string, logger *logging.Logger) *Store {
	if client == nil {
		panic("patients: client is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, table: table, logger: logger}
}

// Get fetches one patient by ID.
func (s *Store) Get(ctx context.Context, patientID string) (Patient, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]types.AttributeValue{
			"patient_id": &types.AttributeValueMemberS{Value: patientID},
		},
	})
	if err != nil {
		return Patient{}, fmt.Errorf("patients: get %s: %w", patientID, err)
	}
	if out.Item == nil {
		return Patient{}, ErrPatientNotFound
	}

	var p Patient
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return Patient{}, fmt.Errorf("patients: unmarshal %s: %w", patientID, err)
	}
	return p, nil
}
