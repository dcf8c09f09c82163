package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"academia/internal/docstore"
	"academia/internal/engagement"
	"academia/internal/membership"
	"academia/internal/models"
	"academia/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

var academyCategories = []string{
	"programming", "music", "fitness", "languages", "cooking", "design",
}

// Factory builds domain entities through the service layer. It is a thin
// helper used by the seed command and tests.
type Factory struct {
	store docstore.Store
	opts  Options
	rng   *rand.Rand

	users       *service.UserService
	academies   *service.AcademyService
	posts       *service.PostService
	comments    *service.CommentService
	memberships *membership.Service
	engagement  *engagement.Service
}

// NewFactory creates a new Factory bound to the provided store.
func NewFactory(store docstore.Store, jwtSecret string, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	eng := engagement.NewService(store)
	return &Factory{
		store:       store,
		opts:        opts,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		users:       service.NewUserService(store, jwtSecret),
		academies:   service.NewAcademyService(store),
		posts:       service.NewPostService(store),
		comments:    service.NewCommentService(store, eng),
		memberships: membership.NewService(store),
		engagement:  eng,
	}
}

// CreateUsers registers n accounts with generated identities.
func (f *Factory) CreateUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		username := fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i)
		user, err := f.users.Signup(ctx, service.SignupInput{
			Username: username,
			Email:    fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
			Password: f.opts.Password,
		})
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// academyName generates a name that passes validation: it starts with a
// letter and stays within the length limit.
func (f *Factory) academyName() string {
	name := fmt.Sprintf("%s %s Academy",
		title(gofakeit.AdjectiveDescriptive()), title(gofakeit.NounAbstract()))
	if len(name) > 64 {
		name = name[:64]
	}
	return strings.TrimSpace(name)
}

// CreateAcademy creates an academy owned by the given user.
func (f *Factory) CreateAcademy(ctx context.Context, creatorID string) (*models.Academy, error) {
	return f.academies.CreateAcademy(ctx, service.CreateAcademyInput{
		Name:        f.academyName(),
		Category:    academyCategories[f.rng.Intn(len(academyCategories))],
		Description: gofakeit.Paragraph(1, 2, 8, " "),
		LogoURL:     fmt.Sprintf("https://picsum.photos/seed/%s/200/200", gofakeit.UUID()),
		BannerURL:   fmt.Sprintf("https://picsum.photos/seed/%s/1200/300", gofakeit.UUID()),
		CreatedBy:   creatorID,
	})
}

// JoinMembers toggles a random subset of users into the academy and returns
// the users who can post there, creator included.
func (f *Factory) JoinMembers(ctx context.Context, academyID string, users []*models.User, creatorID string) []*models.User {
	joined := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID == creatorID {
			joined = append(joined, u)
			continue
		}
		if f.rng.Float64() >= f.opts.JoinRatio {
			continue
		}
		if _, _, err := f.memberships.Toggle(ctx, membership.ToggleInput{
			AcademyID: academyID,
			UserRef:   u.ID,
		}); err == nil {
			joined = append(joined, u)
		}
	}
	return joined
}

// CreatePost creates a post by the given member.
func (f *Factory) CreatePost(ctx context.Context, academyID string, author *models.User) (*models.Post, error) {
	return f.posts.CreatePost(ctx, service.CreatePostInput{
		AcademyID: academyID,
		AuthorRef: author.ID,
		Title:     gofakeit.Sentence(5),
		Caption:   gofakeit.Paragraph(1, 3, 6, "\n"),
		MediaURL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
	})
}

// LikePost toggles likes from a random subset of users.
func (f *Factory) LikePost(ctx context.Context, postID string, users []*models.User) {
	for _, u := range users {
		if f.rng.Float64() >= f.opts.LikeRatio {
			continue
		}
		_, _, _ = f.engagement.ToggleLike(ctx, engagement.ToggleLikeInput{
			PostID:  postID,
			UserRef: u.ID,
		})
	}
}

// CommentOnPost writes the configured number of comments from members.
func (f *Factory) CommentOnPost(ctx context.Context, postID string, members []*models.User) error {
	for i := 0; i < f.opts.CommentsPerPost; i++ {
		author := members[f.rng.Intn(len(members))]
		if _, err := f.comments.CreateComment(ctx, service.CreateCommentInput{
			PostID:    postID,
			AuthorRef: author.ID,
			Text:      gofakeit.Sentence(f.rng.Intn(10) + 4),
		}); err != nil {
			return err
		}
	}
	return nil
}
