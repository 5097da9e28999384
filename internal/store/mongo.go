package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"employee-management/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	employeeCollection = "employeedetails"
	userCollection     = "users"
)

type employeeDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	MobileNo    string             `bson:"mobile_no"`
	Designation string             `bson:"designation"`
	Gender      string             `bson:"gender"`
	Course      []string           `bson:"course"`
	CreatedDate *time.Time         `bson:"created_date,omitempty"`
	Image       string             `bson:"image"`
}

func (d employeeDoc) model() models.Employee {
	e := models.Employee{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Email:       d.Email,
		MobileNo:    d.MobileNo,
		Designation: models.Designation(d.Designation),
		Gender:      models.Gender(d.Gender),
		Course:      d.Course,
		Image:       d.Image,
	}
	if e.Course == nil {
		e.Course = []string{}
	}
	if d.CreatedDate != nil {
		e.CreatedDate = d.CreatedDate.UTC()
	}
	return e
}

type userDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Email    string             `bson:"email"`
	Password string             `bson:"password"`
}

// Mongo keeps employees in the "employeedetails" collection and login users
// in "users".
type Mongo struct {
	db *mongo.Database
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

func (m *Mongo) employees() *mongo.Collection { return m.db.Collection(employeeCollection) }

func (m *Mongo) Insert(ctx context.Context, e models.Employee) (models.Employee, error) {
	doc := employeeDoc{
		Name:        e.Name,
		Email:       e.Email,
		MobileNo:    e.MobileNo,
		Designation: string(e.Designation),
		Gender:      string(e.Gender),
		Course:      e.Course,
		CreatedDate: nullableTime(e.CreatedDate),
		Image:       e.Image,
	}
	if doc.Course == nil {
		doc.Course = []string{}
	}

	res, err := m.employees().InsertOne(ctx, doc)
	if err != nil {
		return models.Employee{}, fmt.Errorf("insert employee: %w", parseMongoErr(err))
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.model(), nil
}

func (m *Mongo) FindAll(ctx context.Context) ([]models.Employee, error) {
	cur, err := m.employees().Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer cur.Close(ctx)

	list := make([]models.Employee, 0)
	for cur.Next(ctx) {
		var d employeeDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode employee: %w", err)
		}
		list = append(list, d.model())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return list, nil
}

func (m *Mongo) FindByID(ctx context.Context, id string) (models.Employee, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Employee{}, ErrNotFound
	}
	var d employeeDoc
	err = m.employees().FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Employee{}, ErrNotFound
	}
	if err != nil {
		return models.Employee{}, fmt.Errorf("find employee: %w", err)
	}
	return d.model(), nil
}

func updateDocument(u models.EmployeeUpdate) bson.D {
	set := bson.D{}
	if u.Name != nil {
		set = append(set, bson.E{Key: "name", Value: strings.TrimSpace(*u.Name)})
	}
	if u.Email != nil {
		set = append(set, bson.E{Key: "email", Value: strings.TrimSpace(*u.Email)})
	}
	if u.MobileNo != nil {
		set = append(set, bson.E{Key: "mobile_no", Value: *u.MobileNo})
	}
	if u.Designation != nil {
		set = append(set, bson.E{Key: "designation", Value: string(*u.Designation)})
	}
	if u.Gender != nil {
		set = append(set, bson.E{Key: "gender", Value: string(*u.Gender)})
	}
	if u.CreatedDate != nil {
		set = append(set, bson.E{Key: "created_date", Value: *u.CreatedDate})
	}
	if u.Image != nil {
		set = append(set, bson.E{Key: "image", Value: *u.Image})
	}

	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(u.Course) > 0 {
		update = append(update, bson.E{Key: "$addToSet", Value: bson.D{
			{Key: "course", Value: bson.D{{Key: "$each", Value: u.Course}}},
		}})
	}
	return update
}

func (m *Mongo) Update(ctx context.Context, id string, u models.EmployeeUpdate) (models.Employee, error) {
	update := updateDocument(u)
	if len(update) == 0 {
		return m.FindByID(ctx, id)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Employee{}, ErrNotFound
	}

	var d employeeDoc
	err = m.employees().FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Employee{}, ErrNotFound
	}
	if err != nil {
		return models.Employee{}, fmt.Errorf("update employee: %w", parseMongoErr(err))
	}
	return d.model(), nil
}

func (m *Mongo) PullCourses(ctx context.Context, id string, labels []string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if labels == nil {
		labels = []string{}
	}
	_, err = m.employees().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$pull", Value: bson.D{
			{Key: "course", Value: bson.D{{Key: "$in", Value: labels}}},
		}}},
	)
	if err != nil {
		return fmt.Errorf("pull courses: %w", err)
	}
	return nil
}

func (m *Mongo) Delete(ctx context.Context, id string) (models.Employee, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Employee{}, ErrNotFound
	}
	var d employeeDoc
	err = m.employees().FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Employee{}, ErrNotFound
	}
	if err != nil {
		return models.Employee{}, fmt.Errorf("delete employee: %w", err)
	}
	return d.model(), nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, readpref.Primary())
}

func (m *Mongo) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var d userDoc
	err := m.db.Collection(userCollection).
		FindOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(strings.TrimSpace(email))}}).
		Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return models.User{ID: d.ID.Hex(), Email: d.Email, PasswordHash: d.Password}, nil
}

func (m *Mongo) InsertUser(ctx context.Context, u models.User) (models.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := m.db.Collection(userCollection).InsertOne(ctx, userDoc{Email: u.Email, Password: u.PasswordHash})
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", parseMongoErr(err))
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid.Hex()
	}
	return u, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

func parseMongoErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
