package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/filipinovation/clinic-booking/pkg/logging"
)

var (
	// ErrDoctorNotFound indicates no doctor matched the selector.
	ErrDoctorNotFound = errors.New("schedule: doctor not found")

	// ErrSlotNotFound indicates the doctor has no such slot scheduled at all.
	ErrSlotNotFound = errors.New("schedule: slot not found")

	// ErrSlotUnavailable indicates the slot exists but is already reserved,
	// including the case where a concurrent booking won the race.
	ErrSlotUnavailable = errors.New("schedule: slot unavailable")
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store persists doctors and their schedule slots.
type Store struct {
	client       dynamoAPI
	doctorsTable string
	slotsTable   string
	logger       *logging.Logger
}

// NewStore builds a store backed by the provided DynamoDB client.
func NewStore(client dynamoAPI, doctorsTable, slotsTable string, logger *logging.Logger) *Store {
	if client == nil {
		panic("schedule: dynamodb client cannot be nil")
	}
	if doctorsTable == "" || slotsTable == "" {
		panic("schedule: table names cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		client:       client,
		doctorsTable: doctorsTable,
		slotsTable:   slotsTable,
		logger:       logger,
	}
}

// ListDoctors returns every doctor in the directory.
func (s *Store) ListDoctors(ctx context.Context) ([]Doctor, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.doctorsTable),
	})
	if err != nil {
		return nil, fmt.Errorf("schedule: failed to list doctors: %w", err)
	}

	doctors := make([]Doctor, 0, len(out.Items))
	for _, item := range out.Items {
		var d Doctor
		if err := attributevalue.UnmarshalMap(item, &d); err != nil {
			return nil, fmt.Errorf("schedule: failed to decode doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, nil
}

// DoctorsByField returns all doctors whose specialization contains the given
// selector, case-insensitively. Matches are aggregated, never disambiguated.
func (s *Store) DoctorsByField(ctx context.Context, field string) ([]Doctor, error) {
	all, err := s.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(field))
	var matched []Doctor
	for _, d := range all {
		if needle != "" && strings.Contains(strings.ToLower(d.Field), needle) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// DoctorByName returns the first doctor whose name contains the given
// selector, case-insensitively.
func (s *Store) DoctorByName(ctx context.Context, name string) (*Doctor, error) {
	all, err := s.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, ErrDoctorNotFound
	}
	for _, d := range all {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			doc := d
			return &doc, nil
		}
	}
	return nil, ErrDoctorNotFound
}

// ResolveDoctor resolves a selector that may be a specialization or a doctor
// name, preferring specialization matches. Used by the booking flow, which
// needs exactly one doctor; the first match wins.
func (s *Store) ResolveDoctor(ctx context.Context, selector string) (*Doctor, error) {
	byField, err := s.DoctorsByField(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(byField) > 0 {
		doc := byField[0]
		return &doc, nil
	}
	return s.DoctorByName(ctx, selector)
}

// SlotsFor returns every slot (open or reserved) for a doctor on a canonical
// date, unordered.
func (s *Store) SlotsFor(ctx context.Context, doctorID, date string) ([]Slot, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.slotsTable),
		KeyConditionExpression: aws.String("doctor_id = :doctor AND begins_with(slot_key, :date)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":doctor": &types.AttributeValueMemberS{Value: doctorID},
			":date":   &types.AttributeValueMemberS{Value: date + "#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("schedule: failed to query slots: %w", err)
	}

	slots := make([]Slot, 0, len(out.Items))
	for _, item := range out.Items {
		var slot Slot
		if err := attributevalue.UnmarshalMap(item, &slot); err != nil {
			return nil, fmt.Errorf("schedule: failed to decode slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// GetSlot fetches a single slot by its identity triple.
func (s *Store) GetSlot(ctx context.Context, doctorID, date, timeOfDay string) (*Slot, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.slotsTable),
		Key: map[string]types.AttributeValue{
			"doctor_id": &types.AttributeValueMemberS{Value: doctorID},
			"slot_key":  &types.AttributeValueMemberS{Value: SlotKeyFor(date, timeOfDay)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("schedule: failed to fetch slot: %w", err)
	}
	if out.Item == nil {
		return nil, ErrSlotNotFound
	}

	var slot Slot
	if err := attributevalue.UnmarshalMap(out.Item, &slot); err != nil {
		return nil, fmt.Errorf("schedule: failed to decode slot: %w", err)
	}
	return &slot, nil
}

// Reserve transitions a slot from open to reserved, conditioned on it still
// being open. A conditional-check failure means a concurrent booking won the
// race (or the slot was never open) and surfaces as ErrSlotUnavailable.
func (s *Store) Reserve(ctx context.Context, doctorID, date, timeOfDay string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.slotsTable),
		Key: map[string]types.AttributeValue{
			"doctor_id": &types.AttributeValueMemberS{Value: doctorID},
			"slot_key":  &types.AttributeValueMemberS{Value: SlotKeyFor(date, timeOfDay)},
		},
		UpdateExpression: aws.String("SET #status = :reserved"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":reserved": &types.AttributeValueMemberS{Value: string(SlotReserved)},
			":open":     &types.AttributeValueMemberS{Value: string(SlotOpen)},
		},
		ConditionExpression: aws.String("attribute_exists(slot_key) AND #status = :open"),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			s.logger.Info("slot reservation lost the race",
				"doctor_id", doctorID, "date", date, "time", timeOfDay)
			return ErrSlotUnavailable
		}
		return fmt.Errorf("schedule: failed to reserve slot: %w", err)
	}
	return nil
}
