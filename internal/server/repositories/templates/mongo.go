package templates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/letterdesk/internal/common"
	"github.com/dmitrijs2005/letterdesk/internal/layout"
	"github.com/dmitrijs2005/letterdesk/internal/server/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the MongoDB collection holding template documents.
const CollectionName = "templates"

type zoneDoc struct {
	ID          string `bson:"id"`
	Name        string `bson:"name"`
	X           int    `bson:"x"`
	Y           int    `bson:"y"`
	Width       int    `bson:"width"`
	Height      int    `bson:"height"`
	FontFamily  string `bson:"font_family"`
	FontSize    int    `bson:"font_size"`
	Alignment   string `bson:"alignment"`
	CreatedUnix int64  `bson:"created_unix"`
}

// templateDoc stores the whole aggregate in one document; zone order is the
// array order.
type templateDoc struct {
	ID            string         `bson:"_id"`
	Name          string         `bson:"name"`
	BackgroundRef string         `bson:"background_ref"`
	Config        *layout.Config `bson:"config,omitempty"`
	Zones         []zoneDoc      `bson:"zones"`
	CreatedUnix   int64          `bson:"created_unix"`
	UpdatedUnix   int64          `bson:"updated_unix"`
}

func toZoneDoc(z layout.Zone, created int64) zoneDoc {
	return zoneDoc{
		ID: z.ID, Name: z.Name,
		X: z.Rect.X, Y: z.Rect.Y, Width: z.Rect.Width, Height: z.Rect.Height,
		FontFamily: z.FontFamily, FontSize: z.FontSize, Alignment: string(z.Alignment),
		CreatedUnix: created,
	}
}

func (d zoneDoc) zone() layout.Zone {
	return layout.Zone{
		ID:         d.ID,
		Name:       d.Name,
		Rect:       layout.Rect{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height},
		FontFamily: d.FontFamily,
		FontSize:   d.FontSize,
		Alignment:  layout.Alignment(d.Alignment),
	}
}

func (d templateDoc) template() *layout.Template {
	t := &layout.Template{
		ID:            d.ID,
		Name:          d.Name,
		BackgroundRef: d.BackgroundRef,
		Zones:         make([]layout.Zone, 0, len(d.Zones)),
	}
	if d.Config != nil {
		cfg := *d.Config
		t.Config = &cfg
	}
	for _, z := range d.Zones {
		t.Zones = append(t.Zones, z.zone())
	}
	return t
}

// replaceZoneDocs builds the new zone array, keeping creation times of
// zones already present in old.
func replaceZoneDocs(old []zoneDoc, zones []layout.Zone, now int64) []zoneDoc {
	created := make(map[string]int64, len(old))
	for _, z := range old {
		created[z.ID] = z.CreatedUnix
	}
	docs := make([]zoneDoc, 0, len(zones))
	for _, z := range zones {
		c, ok := created[z.ID]
		if !ok {
			c = now
		}
		docs = append(docs, toZoneDoc(z, c))
	}
	return docs
}

// collection is the part of *mongo.Collection the repository uses.
type collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
}

// MongoRepository implements Repository over a MongoDB collection.
type MongoRepository struct {
	coll collection
	now  func() time.Time
}

// NewMongoRepository constructs a repository over db's templates collection.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName), now: time.Now}
}

func (r *MongoRepository) find(ctx context.Context, id string) (*templateDoc, error) {
	var doc templateDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("template %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return &doc, nil
}

func (r *MongoRepository) update(ctx context.Context, filter, update bson.M, what string) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", what, common.ErrorNotFound)
	}
	return nil
}

// GetTemplate implements zonestore.Persistence.
func (r *MongoRepository) GetTemplate(ctx context.Context, id string) (*layout.Template, error) {
	doc, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.template(), nil
}

// ReplaceZones implements zonestore.Persistence.
func (r *MongoRepository) ReplaceZones(ctx context.Context, templateID string, zones []layout.Zone) error {
	doc, err := r.find(ctx, templateID)
	if err != nil {
		return err
	}
	now := r.now().Unix()
	return r.update(ctx, bson.M{"_id": templateID}, bson.M{"$set": bson.M{
		"zones":        replaceZoneDocs(doc.Zones, zones, now),
		"updated_unix": now,
	}}, "template "+templateID)
}

// UpdateTemplateConfig implements zonestore.Persistence.
func (r *MongoRepository) UpdateTemplateConfig(ctx context.Context, templateID string, cfg layout.Config) error {
	return r.update(ctx, bson.M{"_id": templateID}, bson.M{"$set": bson.M{
		"config":       cfg,
		"updated_unix": r.now().Unix(),
	}}, "template "+templateID)
}

// CreateZone implements zonestore.Persistence.
func (r *MongoRepository) CreateZone(ctx context.Context, templateID string, zone layout.Zone) (layout.Zone, error) {
	zone.ID = uuid.NewString()
	err := r.update(ctx, bson.M{"_id": templateID}, bson.M{
		"$push": bson.M{"zones": toZoneDoc(zone, r.now().Unix())},
	}, "template "+templateID)
	if err != nil {
		return layout.Zone{}, err
	}
	return zone, nil
}

// DeleteZone implements zonestore.Persistence.
func (r *MongoRepository) DeleteZone(ctx context.Context, zoneID string) error {
	return r.update(ctx, bson.M{"zones.id": zoneID}, bson.M{
		"$pull": bson.M{"zones": bson.M{"id": zoneID}},
	}, "zone "+zoneID)
}

// CreateTemplate implements Repository.
func (r *MongoRepository) CreateTemplate(ctx context.Context, t layout.Template) error {
	now := r.now().Unix()
	// zones must be an array, never null, for $push to work
	doc := templateDoc{
		ID: t.ID, Name: t.Name, BackgroundRef: t.BackgroundRef, Config: t.Config,
		Zones:       make([]zoneDoc, 0, len(t.Zones)),
		CreatedUnix: now, UpdatedUnix: now,
	}
	for _, z := range t.Zones {
		if z.ID == "" {
			z.ID = uuid.NewString()
		}
		doc.Zones = append(doc.Zones, toZoneDoc(z, now))
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo error: %w", err)
	}
	return nil
}

// ListDefaultZones implements Repository.
func (r *MongoRepository) ListDefaultZones(ctx context.Context, createdBefore time.Time) ([]models.ZoneRecord, error) {
	cutoff := createdBefore.Unix()
	cur, err := r.coll.Find(ctx, bson.M{"zones": bson.M{"$elemMatch": bson.M{
		"name":         layout.DefaultZoneName,
		"created_unix": bson.M{"$lt": cutoff},
	}}})
	if err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	var docs []templateDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return defaultZoneRecords(docs, cutoff), nil
}

func defaultZoneRecords(docs []templateDoc, cutoff int64) []models.ZoneRecord {
	var result []models.ZoneRecord
	for _, d := range docs {
		for _, z := range d.Zones {
			if z.Name != layout.DefaultZoneName || z.CreatedUnix >= cutoff {
				continue
			}
			result = append(result, models.ZoneRecord{
				TemplateID: d.ID,
				Zone:       z.zone(),
				CreatedAt:  time.Unix(z.CreatedUnix, 0),
			})
		}
	}
	return result
}
