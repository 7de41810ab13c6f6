package implementation

import (
	"context"
	"errors"
	"time"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepositoryImpl struct {
	col    *mongo.Collection
	mapper *mapper.UserMapper
}

func NewUserRepository(db *mongo.Database, collection string) contract.UserRepository {
	return &UserRepositoryImpl{
		col:    db.Collection(collection),
		mapper: mapper.NewUserMapper(),
	}
}

func (r *UserRepositoryImpl) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var m model.User
	err := r.col.FindOne(ctx, bson.M{"_id": username}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *UserRepositoryImpl) Insert(ctx context.Context, user *entity.User) error {
	_, err := r.col.InsertOne(ctx, r.mapper.ToModel(user))
	return err
}

func (r *UserRepositoryImpl) PushSession(ctx context.Context, username string, session *entity.ChatSession, setCurrent bool) error {
	now := time.Now()
	set := bson.M{"last_interaction": now}
	if setCurrent {
		set["current_session"] = session.SessionID
	}

	update := bson.M{
		"$push":        bson.M{"chat_sessions": r.mapper.SessionToModel(session)},
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": username}, update, opts)
	return err
}

func (r *UserRepositoryImpl) PullSession(ctx context.Context, username, sessionID string) error {
	update := bson.M{
		"$pull": bson.M{"chat_sessions": bson.M{"session_id": sessionID}},
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": username}, update)
	return err
}

func (r *UserRepositoryImpl) SetCurrentSession(ctx context.Context, username, sessionID string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": username},
		bson.M{"$set": bson.M{"current_session": sessionID}},
	)
	return err
}

func (r *UserRepositoryImpl) PushMessage(ctx context.Context, username, sessionID string, msg *entity.Message) (bool, error) {
	now := time.Now()
	filter := bson.M{"_id": username, "chat_sessions.session_id": sessionID}
	update := bson.M{
		"$push": bson.M{"chat_sessions.$.messages": model.Message(*msg)},
		"$set": bson.M{
			"chat_sessions.$.last_interaction": now,
			"last_interaction":                 now,
		},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *UserRepositoryImpl) SetSessionTitleIfFirstMessage(ctx context.Context, username, sessionID, title string) (bool, error) {
	// The $size guard makes the title write atomic with "this was the first
	// message": a racing second append flips the size and the update matches
	// nothing.
	filter := bson.M{
		"_id": username,
		"chat_sessions": bson.M{
			"$elemMatch": bson.M{
				"session_id": sessionID,
				"messages":   bson.M{"$size": 1},
			},
		},
	}
	update := bson.M{"$set": bson.M{"chat_sessions.$.title": title}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *UserRepositoryImpl) SetActive(ctx context.Context, username string, active int) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": username},
		bson.M{"$set": bson.M{"active": active}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *UserRepositoryImpl) Delete(ctx context.Context, username string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": username})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *UserRepositoryImpl) FindAll(ctx context.Context, search string) ([]*entity.User, error) {
	filter := bson.M{}
	if search != "" {
		filter["_id"] = bson.M{"$regex": search, "$options": "i"}
	}

	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "active", Value: -1}, {Key: "_id", Value: 1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var models []*model.User
	if err := cursor.All(ctx, &models); err != nil {
		return nil, err
	}

	users := make([]*entity.User, len(models))
	for i, m := range models {
		users[i] = r.mapper.ToEntity(m)
	}
	return users, nil
}

func (r *UserRepositoryImpl) CountUsers(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *UserRepositoryImpl) CountActive(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"active": 1})
}
