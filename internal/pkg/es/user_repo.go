package es

import (
	"context"
	"errors"
	log "log/slog"

	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/sortorder"
	"github.com/goccy/go-json"
)

type UserRepo interface {
	IndexUser(ctx context.Context, user *UserES) error
	DeleteUser(ctx context.Context, id string) error
	SearchUsers(ctx context.Context, keyword string, lastSortValues []interface{}, size int) ([]*UserES, error)
}

type UserRepoImpl struct {
}

func NewUserRepo() UserRepo {
	return &UserRepoImpl{}
}

func (s *UserRepoImpl) IndexUser(ctx context.Context, user *UserES) error {
	_, err := Client.Index(UserIndex).
		Id(user.ID).
		Document(user).
		Do(ctx)
	return err
}

func (s *UserRepoImpl) DeleteUser(ctx context.Context, id string) error {
	_, err := Client.Delete(UserIndex, id).Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) {
			if e.Status == NotFoundCode {
				log.Warn("User already deleted or not found in ES", "id", id)
				return nil
			}
		}
		return err
	}
	return nil
}

// SearchUsers 按用户名/昵称检索，_score + id 双排序键保证 SearchAfter 稳定
func (s *UserRepoImpl) SearchUsers(ctx context.Context, keyword string, lastSortValues []interface{}, size int) ([]*UserES, error) {
	req := Client.Search().
		Index(UserIndex).
		Query(&types.Query{
			MultiMatch: &types.MultiMatchQuery{
				Query:  keyword,
				Fields: []string{"username^2", "display_name", "bio"},
			},
		}).
		Sort(
			types.SortOptions{SortOptions: map[string]types.FieldSort{
				"_score": {Order: &sortorder.Desc},
			}},
			types.SortOptions{SortOptions: map[string]types.FieldSort{
				"id": {Order: &sortorder.Asc},
			}},
		).
		Size(size)

	// 注入游标
	if len(lastSortValues) > 0 {
		searchAfterValues := make([]types.FieldValue, len(lastSortValues))
		for i, v := range lastSortValues {
			searchAfterValues[i] = v
		}
		req.SearchAfter(searchAfterValues...)
	}

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]*UserES, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var user UserES
		if hit.Source_ == nil {
			continue
		}
		if err = json.Unmarshal(hit.Source_, &user); err != nil {
			continue
		}
		if len(hit.Sort) > 0 {
			user.Sort = make([]interface{}, len(hit.Sort))
			for i, v := range hit.Sort {
				user.Sort[i] = v
			}
		}
		results = append(results, &user)
	}
	return results, nil
}
