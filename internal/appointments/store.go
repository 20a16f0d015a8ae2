// Package appointments persists confirmed bookings.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/filipinovation/clinic-booking/pkg/logging"
)

// ErrDuplicateAppointment is returned when an appointment ID already exists.
var ErrDuplicateAppointment = errors.New("appointment already exists")

// Appointment is a confirmed booking of one slot by one patient.
type Appointment struct {
	ID               string `dynamodbav:"appointment_id" json:"appointment_id"`
	PatientID        string `dynamodbav:"patient_id" json:"patient_id"`
	DoctorID         string `dynamodbav:"doctor_id" json:"doctor_id"`
	DoctorName       string `dynamodbav:"doctor_name" json:"doctor_name"`
	Field            string `dynamodbav:"field" json:"field"`
	Date             string `dynamodbav:"date" json:"date"`
	Time             string `dynamodbav:"time" json:"time"`
	NotificationSent bool   `dynamodbav:"notification_sent" json:"notification_sent"`
	CreatedAt        string `dynamodbav:"created_at" json:"created_at"`
}

// NowRFC3339 formats a creation timestamp the way records store it.
func NowRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store provides access to the appointments table.
type Store struct {
	client dynamoAPI
	table  string
	logger *logging.Logger
}

// NewStore creates an appointment store backed by DynamoDB.
func NewStore(client dynamoAPI, table string, logger *logging.Logger) *Store {
	if client == nil {
		panic("appointments: client is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{client: client, table: table, logger: logger}
}

// Insert writes a new appointment record. The ID must be fresh; a
// collision fails rather than overwriting an existing booking.
func (s *Store) Insert(ctx context.Context, appt Appointment) error {
	item, err := attributevalue.MarshalMap(appt)
	if err != nil {
		return fmt.Errorf("appointments: marshal %s: %w", appt.ID, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(appointment_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrDuplicateAppointment
		}
		return fmt.Errorf("appointments: insert %s: %w", appt.ID, err)
	}

	s.logger.Info("appointment recorded",
		"appointment_id", appt.ID,
		"patient_id", appt.PatientID,
		"doctor_id", appt.DoctorID,
		"date", appt.Date,
		"time", appt.Time)
	return nil
}

// ListByPatient returns a patient's appointments, newest first.
func (s *Store) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        &s.table,
		FilterExpression: aws.String("patient_id = :patient"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":patient": &types.AttributeValueMemberS{Value: patientID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: list for %s: %w", patientID, err)
	}

	appts := make([]Appointment, 0, len(out.Items))
	for _, item := range out.Items {
		var appt Appointment
		if err := attributevalue.UnmarshalMap(item, &appt); err != nil {
			return nil, fmt.Errorf("appointments: unmarshal: %w", err)
		}
		appts = append(appts, appt)
	}

	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].CreatedAt > appts[j].CreatedAt
	})
	return appts, nil
}
