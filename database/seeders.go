package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Seeder represents a database seeder
type Seeder struct {
	Name        string
	Description string
	Seed        func(*mongo.Database) error
}

// seeders contains all database seeders
var seeders = []Seeder{
	{
		Name:        "demo_users",
		Description: "Create demo users for development",
		Seed:        seedDemoUsers,
	},
	{
		Name:        "demo_alerts",
		Description: "Create demo alerts for development",
		Seed:        seedDemoAlerts,
	},
}

// RunSeeders executes all database seeders
func RunSeeders(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Check if seeders have already been run
	seedersCol := db.Collection("seeders")
	count, err := seedersCol.CountDocuments(ctx, bson.M{})
	if err == nil && count > 0 {
		logrus.Info("🌱 Seeders already run, skipping...")
		return nil
	}

	logrus.Info("🌱 Running database seeders...")

	for _, seeder := range seeders {
		logrus.Infof("🔄 Running seeder: %s", seeder.Name)

		if err := seeder.Seed(db); err != nil {
			logrus.Errorf("❌ Seeder %s failed: %v", seeder.Name, err)
			continue // Continue with other seeders
		}

		// Record successful seeder
		_, err := seedersCol.InsertOne(ctx, bson.M{
			"name":      seeder.Name,
			"createdAt": time.Now(),
		})
		if err != nil {
			logrus.Warnf("Failed to record seeder %s: %v", seeder.Name, err)
		}

		logrus.Infof("✅ Seeder %s completed", seeder.Name)
	}

	logrus.Info("🌱 All seeders completed")
	return nil
}

// seedDemoUsers creates demo users for development
func seedDemoUsers(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usersCol := db.Collection("users")

	// Check if demo users already exist
	count, err := usersCol.CountDocuments(ctx, bson.M{"email": bson.M{"$regex": "@demo.com$"}})
	if err == nil && count > 0 {
		return nil // Demo users already exist
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("demo123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	demoUsers := []interface{}{
		bson.M{
			"_id":          primitive.NewObjectID(),
			"name":         "Demo Admin",
			"email":        "admin@demo.com",
			"passwordHash": string(hashedPassword),
			"role":         "admin",
			"isActive":     true,
			"createdAt":    now,
			"updatedAt":    now,
		},
		bson.M{
			"_id":              primitive.NewObjectID(),
			"name":             "Coastal Relief Foundation",
			"email":            "org@demo.com",
			"passwordHash":     string(hashedPassword),
			"role":             "organization",
			"organizationType": "ngo",
			"isActive":         true,
			"createdAt":        now,
			"updatedAt":        now,
		},
		bson.M{
			"_id":           primitive.NewObjectID(),
			"name":          "Maria Santos",
			"email":         "maria@demo.com",
			"passwordHash":  string(hashedPassword),
			"role":          "volunteer",
			"skills":        []string{"first aid", "driving"},
			"city":          "Cebu",
			"emailAlertsOn": true,
			"isActive":      true,
			"createdAt":     now,
			"updatedAt":     now,
		},
		bson.M{
			"_id":           primitive.NewObjectID(),
			"name":          "Ken Alvarez",
			"email":         "ken@demo.com",
			"passwordHash":  string(hashedPassword),
			"role":          "volunteer",
			"skills":        []string{"logistics"},
			"city":          "Manila",
			"emailAlertsOn": true,
			"isActive":      true,
			"createdAt":     now,
			"updatedAt":     now,
		},
	}

	_, err = usersCol.InsertMany(ctx, demoUsers)
	return err
}

// seedDemoAlerts creates a couple of demo alerts for development
func seedDemoAlerts(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alertsCol := db.Collection("alerts")

	count, err := alertsCol.CountDocuments(ctx, bson.M{})
	if err == nil && count > 0 {
		return nil
	}

	var org bson.M
	err = db.Collection("users").FindOne(ctx, bson.M{"role": "organization"}).Decode(&org)
	if err != nil {
		return fmt.Errorf("no organization user to own demo alerts: %w", err)
	}

	now := time.Now()
	demoAlerts := []interface{}{
		bson.M{
			"_id":               primitive.NewObjectID(),
			"alertId":           fmt.Sprintf("EA-%d-DEMOSEED", now.UnixMilli()),
			"organizationId":    org["_id"],
			"organizationName":  org["name"],
			"organizationEmail": org["email"],
			"title":             "Flood relief packing volunteers needed",
			"description":       "Help pack relief goods for families displaced by flooding.",
			"emergencyType":     "flood",
			"urgencyLevel":      "high",
			"location": bson.M{
				"address": "Barangay Hall, Mandaue City",
				"city":    "Mandaue",
			},
			"requiredSkills":    []string{"logistics"},
			"volunteersNeeded":  bson.M{"virtual": 0, "inPerson": 20},
			"status":            "pending_verification",
			"verifiedByAdmin":   false,
			"notificationsSent": 0,
			"responses":         []bson.M{},
			"analytics": bson.M{
				"totalViews":         0,
				"totalClicks":        0,
				"completedResponses": 0,
				"averageRating":      0,
			},
			"broadcastedAt": now,
			"createdAt":     now,
			"updatedAt":     now,
		},
	}

	_, err = alertsCol.InsertMany(ctx, demoAlerts)
	return err
}
