package database

import (
	"context"
	"fmt"
	"time"

	"github.com/SusheelSathyaraj/TableReplicator/config"
	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore writes each table into a collection of the same name, keyed
// by _id = the record's unique key.
type MongoStore struct {
	URI      string
	DBName   string
	Tables   Tables
	Policy   ConflictPolicy
	Client   *mongo.Client
	Database *mongo.Database
}

var (
	_ DestinationStore = (*MongoStore)(nil)
	_ Sampler          = (*MongoStore)(nil)
)

// creating a new MongoStore using manual parameters
func NewMongoStore(uri, dbname string, tables Tables, policy ConflictPolicy) *MongoStore {
	if policy == "" {
		policy = ConflictSkip
	}
	return &MongoStore{
		URI:    uri,
		DBName: dbname,
		Tables: tables,
		Policy: policy,
	}
}

// creating a new MongoStore using config
func NewMongoStoreFromConfig(cfg config.DatabaseConfig, tables Tables, policy ConflictPolicy) (*MongoStore, error) {
	if cfg.DBName == "" {
		return nil, errors.New("mongodb destination needs a database name")
	}

	uri := cfg.DSN
	if uri == "" {
		port := cfg.Port
		if port == 0 {
			port = 27017
		}
		if cfg.User != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.User, cfg.Password, cfg.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", cfg.Host, port)
		}
	}
	return NewMongoStore(uri, cfg.DBName, tables, policy), nil
}

// connecting to mongoDB
func (m *MongoStore) Connect(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(m.URI))
	if err != nil {
		return errors.Wrap(err, "connect to mongodb")
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return errors.Wrap(err, "ping mongodb")
	}

	m.Client = client
	m.Database = client.Database(m.DBName)
	return nil
}

// closing the mongodb connection
func (m *MongoStore) Close() error {
	if m.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

func (m *MongoStore) collection(name string) (*mongo.Collection, error) {
	if m.Database == nil {
		return nil, errors.New("mongodb connection not established")
	}
	return m.Database.Collection(name), nil
}

// ReferenceDocument maps a reference record to its stored fields, _id excluded.
func ReferenceDocument(r ReferenceRecord) bson.D {
	return bson.D{
		{Key: "booknum", Value: r.ID},
		{Key: "bookname", Value: nullableString(r.Name)},
		{Key: "testament", Value: r.Testament.String},
		{Key: "category", Value: r.Category.String},
	}
}

// DetailDocument maps a detail record to its stored fields, _id excluded.
func DetailDocument(d DetailRecord) bson.D {
	return bson.D{
		{Key: "wordid", Value: d.ID},
		{Key: "word", Value: d.Word.String},
		{Key: "booknum", Value: nullableInt(d.BookNum)},
		{Key: "chnum", Value: nullableInt(d.Chapter)},
		{Key: "versenum", Value: nullableInt(d.Verse)},
	}
}

// upsertModel returns the update document and options for one write:
// $setOnInsert leaves an existing document alone, $set overwrites it.
func upsertModel(doc bson.D, policy ConflictPolicy) (bson.D, *options.UpdateOptions) {
	operator := "$setOnInsert"
	if policy == ConflictUpdate {
		operator = "$set"
	}
	return bson.D{{Key: operator, Value: doc}}, options.Update().SetUpsert(true)
}

func (m *MongoStore) upsert(ctx context.Context, table string, id int64, doc bson.D) error {
	coll, err := m.collection(table)
	if err != nil {
		return err
	}
	update, opts := upsertModel(doc, m.Policy)
	if _, err := coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update, opts); err != nil {
		return errors.Wrapf(err, "upsert %s %d", table, id)
	}
	return nil
}

// InsertReferenceRecord writes one reference document under the store's conflict policy.
func (m *MongoStore) InsertReferenceRecord(ctx context.Context, record ReferenceRecord) error {
	return m.upsert(ctx, m.Tables.Reference, record.ID, ReferenceDocument(record))
}

// InsertDetailRecord writes one detail document under the store's conflict policy.
func (m *MongoStore) InsertDetailRecord(ctx context.Context, record DetailRecord) error {
	return m.upsert(ctx, m.Tables.Detail, record.ID, DetailDocument(record))
}

// CountRows counts the documents of a collection.
func (m *MongoStore) CountRows(ctx context.Context, table string) (int64, error) {
	coll, err := m.collection(table)
	if err != nil {
		return 0, err
	}
	count, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, errors.Wrapf(err, "count documents of %s", table)
	}
	return count, nil
}

// ListTables lists the collections with their document counts.
func (m *MongoStore) ListTables(ctx context.Context) ([]TableInfo, error) {
	if m.Database == nil {
		return nil, errors.New("mongodb connection not established")
	}
	names, err := m.Database.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(err, "list collections")
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		count, err := m.CountRows(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, TableInfo{Name: name, Rows: count})
	}
	return tables, nil
}

// TableDDL returns an empty definition; collections have no schema.
func (m *MongoStore) TableDDL(ctx context.Context, table string) (string, error) {
	if _, err := m.collection(table); err != nil {
		return "", err
	}
	return "", nil
}

// SampleRows returns up to limit documents of a collection in _id order.
func (m *MongoStore) SampleRows(ctx context.Context, table string, limit int64) ([]map[string]interface{}, error) {
	coll, err := m.collection(table)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "sample %s", table)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode sample of %s", table)
	}

	samples := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		samples = append(samples, map[string]interface{}(doc))
	}
	return samples, nil
}
