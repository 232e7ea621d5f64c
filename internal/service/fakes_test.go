package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"foodgram/internal/models"
	"foodgram/internal/repository"
	"foodgram/internal/storage"
)

// In-memory repository fakes for exercising the service layer without a
// database.

type fakeUserRepo struct {
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return nil, repository.ErrDuplicate
		}
	}
	r.nextID++
	stored := *user
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := *user
	return &out, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			out := *user
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List(_ context.Context, filters repository.UserFilters) ([]*models.User, int, error) {
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []*models.User{}
	for i, id := range ids {
		if i < filters.Offset {
			continue
		}
		if filters.Limit > 0 && len(out) >= filters.Limit {
			break
		}
		user := *r.users[id]
		out = append(out, &user)
	}
	return out, len(ids), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) (*models.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	stored := *user
	r.users[user.ID] = &stored
	out := stored
	return &out, nil
}

type fakeTokenRepo struct {
	tokens map[string]*models.AuthToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*models.AuthToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *models.AuthToken) error {
	stored := *token
	r.tokens[token.Key] = &stored
	return nil
}

func (r *fakeTokenRepo) GetByKey(_ context.Context, key string) (*models.AuthToken, error) {
	token, ok := r.tokens[key]
	if !ok {
		return nil, nil
	}
	out := *token
	return &out, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, key string) error {
	if _, ok := r.tokens[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tokens, key)
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	var removed int64
	now := time.Now()
	for key, token := range r.tokens {
		if token.Expired(now) {
			delete(r.tokens, key)
			removed++
		}
	}
	return removed, nil
}

type fakeTagRepo struct {
	nextID int64
	tags   map[int64]models.Tag
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{tags: make(map[int64]models.Tag)}
}

func (r *fakeTagRepo) Create(_ context.Context, tag *models.Tag) (*models.Tag, error) {
	for _, existing := range r.tags {
		if existing.Slug == tag.Slug || existing.Name == tag.Name {
			return nil, repository.ErrDuplicate
		}
	}
	r.nextID++
	stored := *tag
	stored.ID = r.nextID
	r.tags[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *fakeTagRepo) GetByID(_ context.Context, id int64) (*models.Tag, error) {
	tag, ok := r.tags[id]
	if !ok {
		return nil, nil
	}
	return &tag, nil
}

func (r *fakeTagRepo) GetByIDs(_ context.Context, ids []int64) ([]models.Tag, error) {
	out := []models.Tag{}
	for _, id := range ids {
		if tag, ok := r.tags[id]; ok {
			out = append(out, tag)
		}
	}
	return out, nil
}

func (r *fakeTagRepo) List(_ context.Context) ([]*models.Tag, error) {
	out := []*models.Tag{}
	for _, tag := range r.tags {
		t := tag
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeIngredientRepo struct {
	nextID      int64
	ingredients map[int64]models.Ingredient
}

func newFakeIngredientRepo() *fakeIngredientRepo {
	return &fakeIngredientRepo{ingredients: make(map[int64]models.Ingredient)}
}

func (r *fakeIngredientRepo) Create(_ context.Context, ingredient *models.Ingredient) (*models.Ingredient, error) {
	for _, existing := range r.ingredients {
		if existing.Name == ingredient.Name && existing.MeasurementUnit == ingredient.MeasurementUnit {
			return nil, repository.ErrDuplicate
		}
	}
	r.nextID++
	stored := *ingredient
	stored.ID = r.nextID
	r.ingredients[stored.ID] = stored
	out := stored
	return &out, nil
}

func (r *fakeIngredientRepo) GetByID(_ context.Context, id int64) (*models.Ingredient, error) {
	ingredient, ok := r.ingredients[id]
	if !ok {
		return nil, nil
	}
	return &ingredient, nil
}

func (r *fakeIngredientRepo) GetByIDs(_ context.Context, ids []int64) ([]*models.Ingredient, error) {
	out := []*models.Ingredient{}
	for _, id := range ids {
		if ingredient, ok := r.ingredients[id]; ok {
			i := ingredient
			out = append(out, &i)
		}
	}
	return out, nil
}

func (r *fakeIngredientRepo) List(_ context.Context, filters repository.IngredientFilters) ([]*models.Ingredient, error) {
	out := []*models.Ingredient{}
	prefix := strings.ToLower(filters.Name)
	for _, ingredient := range r.ingredients {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(ingredient.Name), prefix) {
			continue
		}
		i := ingredient
		out = append(out, &i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type userRecipe struct {
	userID   int64
	recipeID int64
}

type fakeRecipeRepo struct {
	nextID    int64
	recipes   map[int64]*models.Recipe
	order     []int64
	favorites map[userRecipe]bool
	cart      []userRecipe
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{
		recipes:   make(map[int64]*models.Recipe),
		favorites: make(map[userRecipe]bool),
	}
}

func (r *fakeRecipeRepo) Create(_ context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	r.nextID++
	stored := *recipe
	stored.ID = r.nextID
	stored.PubDate = time.Now()
	r.recipes[stored.ID] = &stored
	r.order = append(r.order, stored.ID)
	out := stored
	return &out, nil
}

func (r *fakeRecipeRepo) GetByID(_ context.Context, id, viewerID int64) (*models.Recipe, error) {
	recipe, ok := r.recipes[id]
	if !ok {
		return nil, nil
	}
	out := *recipe
	if viewerID != 0 {
		out.IsFavorited = r.favorites[userRecipe{viewerID, id}]
		out.IsInShoppingCart = r.inCart(viewerID, id)
	}
	return &out, nil
}

func (r *fakeRecipeRepo) GetByShortCode(_ context.Context, code string) (*models.Recipe, error) {
	for _, recipe := range r.recipes {
		if recipe.ShortCode == code {
			out := *recipe
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeRecipeRepo) List(_ context.Context, filters repository.RecipeFilters) ([]*models.Recipe, int, error) {
	matched := []*models.Recipe{}
	// Newest first.
	for i := len(r.order) - 1; i >= 0; i-- {
		recipe := r.recipes[r.order[i]]
		if filters.AuthorID != nil && recipe.AuthorID != *filters.AuthorID {
			continue
		}
		if filters.FavoritedBy != nil && !r.favorites[userRecipe{*filters.FavoritedBy, recipe.ID}] {
			continue
		}
		if filters.InCartOf != nil && !r.inCart(*filters.InCartOf, recipe.ID) {
			continue
		}
		out := *recipe
		matched = append(matched, &out)
	}

	total := len(matched)
	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filters.Offset:]
		}
	}
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, total, nil
}

func (r *fakeRecipeRepo) Update(_ context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	existing, ok := r.recipes[recipe.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	stored := *recipe
	stored.PubDate = existing.PubDate
	r.recipes[recipe.ID] = &stored
	out := stored
	return &out, nil
}

func (r *fakeRecipeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.recipes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.recipes, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeRecipeRepo) ShortCodeExists(_ context.Context, code string) (bool, error) {
	for _, recipe := range r.recipes {
		if recipe.ShortCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRecipeRepo) CountByAuthor(_ context.Context, authorID int64) (int, error) {
	count := 0
	for _, recipe := range r.recipes {
		if recipe.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}

func (r *fakeRecipeRepo) AddFavorite(_ context.Context, userID, recipeID int64) error {
	key := userRecipe{userID, recipeID}
	if r.favorites[key] {
		return repository.ErrDuplicate
	}
	r.favorites[key] = true
	return nil
}

func (r *fakeRecipeRepo) RemoveFavorite(_ context.Context, userID, recipeID int64) error {
	key := userRecipe{userID, recipeID}
	if !r.favorites[key] {
		return repository.ErrNotFound
	}
	delete(r.favorites, key)
	return nil
}

func (r *fakeRecipeRepo) AddToCart(_ context.Context, userID, recipeID int64) error {
	if r.inCart(userID, recipeID) {
		return repository.ErrDuplicate
	}
	r.cart = append(r.cart, userRecipe{userID, recipeID})
	return nil
}

func (r *fakeRecipeRepo) RemoveFromCart(_ context.Context, userID, recipeID int64) error {
	for i, entry := range r.cart {
		if entry.userID == userID && entry.recipeID == recipeID {
			r.cart = append(r.cart[:i], r.cart[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeRecipeRepo) InCart(_ context.Context, userID int64) ([]*models.Recipe, error) {
	out := []*models.Recipe{}
	for _, entry := range r.cart {
		if entry.userID != userID {
			continue
		}
		if recipe, ok := r.recipes[entry.recipeID]; ok {
			c := *recipe
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeRecipeRepo) inCart(userID, recipeID int64) bool {
	for _, entry := range r.cart {
		if entry.userID == userID && entry.recipeID == recipeID {
			return true
		}
	}
	return false
}

type followPair struct {
	userID   int64
	authorID int64
}

type fakeFollowRepo struct {
	follows []followPair
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{}
}

func (r *fakeFollowRepo) Create(_ context.Context, userID, authorID int64) error {
	for _, f := range r.follows {
		if f.userID == userID && f.authorID == authorID {
			return repository.ErrDuplicate
		}
	}
	r.follows = append(r.follows, followPair{userID, authorID})
	return nil
}

func (r *fakeFollowRepo) Delete(_ context.Context, userID, authorID int64) error {
	for i, f := range r.follows {
		if f.userID == userID && f.authorID == authorID {
			r.follows = append(r.follows[:i], r.follows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeFollowRepo) Exists(_ context.Context, userID, authorID int64) (bool, error) {
	for _, f := range r.follows {
		if f.userID == userID && f.authorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFollowRepo) Authors(_ context.Context, userID int64, limit, offset int) ([]*models.User, int, error) {
	ids := []int64{}
	for _, f := range r.follows {
		if f.userID == userID {
			ids = append(ids, f.authorID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []*models.User{}
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, &models.User{ID: id, IsSubscribed: true})
	}
	return out, len(ids), nil
}

// testEnv bundles a Service wired to in-memory fakes.
type testEnv struct {
	svc         *Service
	users       *fakeUserRepo
	tokens      *fakeTokenRepo
	tags        *fakeTagRepo
	ingredients *fakeIngredientRepo
	recipes     *fakeRecipeRepo
	follows     *fakeFollowRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	l := logrus.New()
	l.SetOutput(io.Discard)

	media, err := storage.NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create media store: %v", err)
	}

	env := &testEnv{
		users:       newFakeUserRepo(),
		tokens:      newFakeTokenRepo(),
		tags:        newFakeTagRepo(),
		ingredients: newFakeIngredientRepo(),
		recipes:     newFakeRecipeRepo(),
		follows:     newFakeFollowRepo(),
	}
	env.svc = New(l, media, time.Hour,
		env.users, env.tokens, env.tags,
		env.ingredients, env.recipes, env.follows,
	)
	return env
}

func (e *testEnv) mustRegister(t *testing.T, username, email string) *models.User {
	t.Helper()
	user, err := e.svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "correct-horse",
	})
	if err != nil {
		t.Fatalf("Failed to register %s: %v", username, err)
	}
	return user
}
