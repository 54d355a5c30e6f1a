package service

import (
	"MiniSocial/internal/api/dto"
	"MiniSocial/internal/model"
	"MiniSocial/internal/pkg/consts"
	"MiniSocial/internal/pkg/es"
	"MiniSocial/internal/pkg/identity"
	"MiniSocial/internal/pkg/minio"
	"MiniSocial/internal/pkg/redis"
	"MiniSocial/internal/pkg/util"
	"MiniSocial/internal/repository"
	"context"
	"errors"
	"time"

	log "log/slog"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

type UserService interface {
	EnsureUser(ctx context.Context, id string) error
	GetUserInfo(ctx context.Context, id string) (*dto.UserDTO, error)
	UpdateUserInfo(ctx context.Context, id string, req *dto.UpdateUserInfoDTO) error
	UpdateAvatar(ctx context.Context, id string, objectName string) (string, error)
	GetSimpleInfo(ctx context.Context, id string) (*dto.SimpleUserDTO, error)
	GetSimpleInfoByIds(ctx context.Context, ids []string) ([]*dto.SimpleUserDTO, error)
	SearchUser(ctx context.Context, req *dto.SearchUserDTO) (*dto.PageResult[*dto.SimpleUserDTO], error)
}

type userServiceImpl struct {
	userRepo    repository.UserRepo
	esRepo      es.UserRepo
	identityCli *identity.Client
}

func NewUserService(userRepo repository.UserRepo, esRepo es.UserRepo, identityCli *identity.Client) UserService {
	return &userServiceImpl{
		userRepo:    userRepo,
		esRepo:      esRepo,
		identityCli: identityCli,
	}
}

// EnsureUser 首次认证访问时从身份提供方建档，幂等
func (s *userServiceImpl) EnsureUser(ctx context.Context, id string) error {
	_, err := s.userRepo.GetUser(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	info, err := s.identityCli.Lookup(ctx, id)
	if err != nil {
		return ErrUserNotFound
	}

	user := &model.User{
		ID:       info.ID,
		Username: info.Username,
	}
	if info.DisplayName != "" {
		user.DisplayName = &info.DisplayName
	}
	if info.AvatarURL != "" {
		user.AvatarURL = &info.AvatarURL
	}

	if err = s.userRepo.UpsertUser(ctx, user); err != nil {
		return err
	}

	s.indexUser(ctx, user)
	return nil
}

// GetUserInfo 获取完整资料
func (s *userServiceImpl) GetUserInfo(ctx context.Context, id string) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetUser(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	userDTO := &dto.UserDTO{}
	if err = copier.Copy(userDTO, user); err != nil {
		return nil, err
	}
	return userDTO, nil
}

// UpdateUserInfo 更新资料并刷新 ES 索引与缓存
func (s *userServiceImpl) UpdateUserInfo(ctx context.Context, id string, req *dto.UpdateUserInfoDTO) error {
	user, err := s.userRepo.GetUser(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if req.DisplayName != nil {
		user.DisplayName = req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}

	if err = s.userRepo.UpdateUser(ctx, user); err != nil {
		return err
	}

	s.invalidateCache(ctx, id)
	s.indexUser(ctx, user)
	return nil
}

// UpdateAvatar 头像上传完成后绑定对象地址
func (s *userServiceImpl) UpdateAvatar(ctx context.Context, id string, objectName string) (string, error) {
	user, err := s.userRepo.GetUser(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	url := minio.GetPublicURL(objectName)
	user.AvatarURL = &url
	if err = s.userRepo.UpdateUser(ctx, user); err != nil {
		return "", err
	}

	s.invalidateCache(ctx, id)
	s.indexUser(ctx, user)
	return url, nil
}

// GetSimpleInfo 单个精简信息，优先命中缓存
func (s *userServiceImpl) GetSimpleInfo(ctx context.Context, id string) (*dto.SimpleUserDTO, error) {
	res, err := s.GetSimpleInfoByIds(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrUserNotFound
	}
	return res[0], nil
}

// GetSimpleInfoByIds 批量精简信息，缓存未命中的走数据库回填
func (s *userServiceImpl) GetSimpleInfoByIds(ctx context.Context, ids []string) ([]*dto.SimpleUserDTO, error) {
	missedIds := make([]string, 0, len(ids))
	mp := make(map[string]*dto.SimpleUserDTO)
	for _, id := range ids {
		value, err := redis.GetValue(ctx, consts.UserSimpleInfoKey+id)
		if err != nil {
			return nil, err
		}
		if value != "" {
			var userDTO *dto.SimpleUserDTO
			if err = json.Unmarshal([]byte(value), &userDTO); err != nil {
				missedIds = append(missedIds, id)
			} else {
				mp[id] = userDTO
			}
		} else {
			missedIds = append(missedIds, id)
		}
	}

	if len(missedIds) > 0 {
		users, err := s.userRepo.GetUserByIds(ctx, missedIds)
		if err != nil {
			return nil, err
		}
		for _, user := range users {
			userDTO := toSimpleUserDTO(user)
			mp[user.ID] = userDTO
			jsonStr, err := json.Marshal(userDTO)
			if err != nil {
				return nil, err
			}
			err = redis.SetWithExpiration(ctx, consts.UserSimpleInfoKey+user.ID, string(jsonStr), time.Hour*1)
			if err != nil {
				return nil, err
			}
		}
	}

	res := make([]*dto.SimpleUserDTO, 0, len(ids))
	for _, id := range ids {
		if mp[id] == nil {
			continue
		}
		res = append(res, mp[id])
	}
	return res, nil
}

// SearchUser 基于 ES 的用户检索，SearchAfter 游标翻页
func (s *userServiceImpl) SearchUser(ctx context.Context, req *dto.SearchUserDTO) (*dto.PageResult[*dto.SimpleUserDTO], error) {
	size := req.Size
	if size <= 0 {
		size = consts.DefaultConversationPageSize
	}
	if size > consts.MaxConversationPageSize {
		size = consts.MaxConversationPageSize
	}

	lastSortValues, err := util.DecodeCursor(req.Cursor)
	if err != nil {
		return nil, ErrParamInvalid
	}

	users, err := s.esRepo.SearchUsers(ctx, req.Keyword, lastSortValues, size)
	if err != nil {
		return nil, err
	}

	list := make([]*dto.SimpleUserDTO, 0, len(users))
	for _, u := range users {
		list = append(list, &dto.SimpleUserDTO{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			AvatarURL:   u.AvatarURL,
		})
	}

	result := &dto.PageResult[*dto.SimpleUserDTO]{
		List:    list,
		HasMore: len(users) == size,
	}
	if len(users) > 0 {
		result.NextCursor = util.EncodeCursor(users[len(users)-1].Sort)
	}
	return result, nil
}

func (s *userServiceImpl) invalidateCache(ctx context.Context, id string) {
	if err := redis.DeleteKey(ctx, consts.UserSimpleInfoKey+id); err != nil {
		log.Warn("Failed to invalidate user cache", "id", id, "err", err)
	}
}

// indexUser 异常只记日志，资料写入不依赖搜索可用
func (s *userServiceImpl) indexUser(ctx context.Context, user *model.User) {
	doc := &es.UserES{
		ID:       user.ID,
		Username: user.Username,
		Bio:      user.Bio,
	}
	if user.DisplayName != nil {
		doc.DisplayName = *user.DisplayName
	}
	if user.AvatarURL != nil {
		doc.AvatarURL = *user.AvatarURL
	}
	if err := s.esRepo.IndexUser(ctx, doc); err != nil {
		log.Error("Failed to index user", "id", user.ID, "err", err)
	}
}

func toSimpleUserDTO(user *model.User) *dto.SimpleUserDTO {
	d := &dto.SimpleUserDTO{
		ID:       user.ID,
		Username: user.Username,
	}
	if user.DisplayName != nil && *user.DisplayName != "" {
		d.DisplayName = *user.DisplayName
	} else {
		d.DisplayName = user.Username
	}
	if user.AvatarURL != nil {
		d.AvatarURL = *user.AvatarURL
	} else {
		d.AvatarURL = minio.GetPublicURL(consts.DefaultAvatarURL)
	}
	return d
}
