// Seeds the DynamoDB tables with a demo roster, schedule and patients.
// Intended for LocalStack and fresh environments.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/filipinovation/clinic-booking/cmd/mainconfig"
	appconfig "github.com/filipinovation/clinic-booking/internal/config"
	"github.com/filipinovation/clinic-booking/internal/patients"
	"github.com/filipinovation/clinic-booking/internal/schedule"
	"github.com/filipinovation/clinic-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.NewWithFormat(cfg.LogLevel, "text")

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	client := dynamodb.NewFromConfig(awsCfg)

	manilaLat, manilaLng := 14.5995, 120.9842
	qcLat, qcLng := 14.6760, 121.0437
	cebuLat, cebuLng := 10.3157, 123.8854

	doctors := []schedule.Doctor{
		{ID: "D1", Name: "Dr. Reyes", Field: "Cardiology", Hospital: "Manila Heart Center", Latitude: &manilaLat, Longitude: &manilaLng},
		{ID: "D2", Name: "Dr. Cruz", Field: "Cardiology", Hospital: "Cebu Doctors Hospital", Latitude: &cebuLat, Longitude: &cebuLng},
		{ID: "D3", Name: "Dr. Santos", Field: "Dermatology", Hospital: "QC General", Latitude: &qcLat, Longitude: &qcLng},
		{ID: "D4", Name: "Dr. Lim", Field: "Pediatrics", Hospital: "Manila Medical"},
	}

	patientRows := []patients.Patient{
		{ID: "U1", Name: "Maria Santos", Email: "maria@example.com", Phone: "+63-917-555-0101", Latitude: &qcLat, Longitude: &qcLng},
		{ID: "U2", Name: "Jose Cruz", Phone: "+63-917-555-0102"},
	}

	var slots []schedule.Slot
	times := []string{"9:00 AM", "10:00 AM", "11:00 AM", "2:00 PM", "3:00 PM"}
	for _, d := range doctors {
		for _, date := range []string{"2025-05-10", "2025-05-11", "2025-05-12"} {
			for _, t := range times {
				slots = append(slots, schedule.Slot{
					DoctorID: d.ID,
					SlotKey:  schedule.SlotKeyFor(date, t),
					Date:     date,
					Time:     t,
					Status:   schedule.SlotOpen,
				})
			}
		}
	}

	put := func(table string, row any) {
		item, err := attributevalue.MarshalMap(row)
		if err != nil {
			logger.Error("marshal failed", "table", table, "error", err)
			os.Exit(1)
		}
		if _, err := client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &table, Item: item}); err != nil {
			logger.Error("put failed", "table", table, "error", err)
			os.Exit(1)
		}
	}

	for _, d := range doctors {
		put(cfg.DoctorsTable, d)
	}
	for _, p := range patientRows {
		put(cfg.PatientsTable, p)
	}
	for _, s := range slots {
		put(cfg.SlotsTable, s)
	}

	logger.Info("seed complete",
		"doctors", len(doctors),
		"patients", len(patientRows),
		"slots", len(slots),
	)
}
