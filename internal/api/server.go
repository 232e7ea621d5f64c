package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"foodgram/internal/models"
	"foodgram/internal/repository"
	"foodgram/internal/service"
)

// Server provides the HTTP API.
type Server struct {
	svc          *service.Service
	logger       *logrus.Logger
	mux          *http.ServeMux
	ready        *atomic.Bool
	debug        bool
	allowedHosts []string
	mediaRoot    string
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger, debug bool, allowedHosts []string, mediaRoot string) *Server {
	s := &Server{
		svc:          svc,
		logger:       logger,
		mux:          http.NewServeMux(),
		ready:        atomic.NewBool(false),
		debug:        debug,
		allowedHosts: allowedHosts,
		mediaRoot:    mediaRoot,
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.checkHost(s.normalizePath(s.instrument(s.authenticate(s.logRequests(s.mux)))))
}

// SetReady marks the server as ready to serve traffic.
func (s *Server) SetReady() {
	s.ready.Store(true)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Users & auth
	s.mux.HandleFunc("POST /api/users", s.handleRegister)
	s.mux.HandleFunc("GET /api/users", s.handleListUsers)
	s.mux.HandleFunc("GET /api/users/me", s.handleMe)
	s.mux.HandleFunc("PUT /api/users/me/avatar", s.handleSetAvatar)
	s.mux.HandleFunc("DELETE /api/users/me/avatar", s.handleDeleteAvatar)
	s.mux.HandleFunc("POST /api/users/set_password", s.handleSetPassword)
	s.mux.HandleFunc("GET /api/users/subscriptions", s.handleSubscriptions)
	s.mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	s.mux.HandleFunc("POST /api/users/{id}/subscribe", s.handleSubscribe)
	s.mux.HandleFunc("DELETE /api/users/{id}/subscribe", s.handleUnsubscribe)
	s.mux.HandleFunc("POST /api/auth/token/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/token/logout", s.handleLogout)

	// API – Tags & ingredients
	s.mux.HandleFunc("GET /api/tags", s.handleListTags)
	s.mux.HandleFunc("GET /api/tags/{id}", s.handleGetTag)
	s.mux.HandleFunc("GET /api/ingredients", s.handleListIngredients)
	s.mux.HandleFunc("GET /api/ingredients/{id}", s.handleGetIngredient)

	// API – Recipes
	s.mux.HandleFunc("GET /api/recipes", s.handleListRecipes)
	s.mux.HandleFunc("POST /api/recipes", s.handleCreateRecipe)
	s.mux.HandleFunc("GET /api/recipes/download_shopping_cart", s.handleDownloadShoppingCart)
	s.mux.HandleFunc("GET /api/recipes/{id}", s.handleGetRecipe)
	s.mux.HandleFunc("PATCH /api/recipes/{id}", s.handleUpdateRecipe)
	s.mux.HandleFunc("DELETE /api/recipes/{id}", s.handleDeleteRecipe)
	s.mux.HandleFunc("POST /api/recipes/{id}/favorite", s.handleFavorite)
	s.mux.HandleFunc("DELETE /api/recipes/{id}/favorite", s.handleUnfavorite)
	s.mux.HandleFunc("POST /api/recipes/{id}/shopping_cart", s.handleAddToCart)
	s.mux.HandleFunc("DELETE /api/recipes/{id}/shopping_cart", s.handleRemoveFromCart)
	s.mux.HandleFunc("GET /api/recipes/{id}/get-link", s.handleGetLink)

	// Short links
	s.mux.HandleFunc("GET /s/{code}", s.handleShortLink)

	// Operational endpoints
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// The gateway serves media in production; in debug mode the backend
	// serves it directly.
	if s.debug {
		s.mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(s.mediaRoot))))
	}
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"detail": message})
}

// respondServiceError maps service sentinel errors onto HTTP statuses.
// Anything unrecognized is logged and reported as a server fault.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrPermissionDenied):
		s.respondError(w, http.StatusForbidden, "you do not have permission to perform this action")
	case errors.Is(err, service.ErrInvalidCredentials):
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrSelfFollow),
		errors.Is(err, service.ErrEmptySelection):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.WithError(err).Error(logMsg)
		s.respondError(w, http.StatusInternalServerError, logMsg)
	}
}

// decodeJSON reads the request body into dst and returns an error message
// on failure. The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value and converts it to int64.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, fmt.Errorf("missing id in path")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func viewerID(r *http.Request) int64 {
	if user := currentUser(r); user != nil {
		return user.ID
	}
	return 0
}

// ---------------------------------------------------------------------------
// Users & auth
// ---------------------------------------------------------------------------

type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := s.svc.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		s.respondServiceError(w, err, "failed to register user")
		return
	}

	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)

	users, total, err := s.svc.ListUsers(r.Context(), limit, (page-1)*limit, viewerID(r))
	if err != nil {
		s.respondServiceError(w, err, "failed to list users")
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	s.respondJSON(w, http.StatusOK, paginate(r, total, page, limit, users))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.svc.GetUser(r.Context(), id, viewerID(r))
	if err != nil {
		s.respondServiceError(w, err, "failed to get user")
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	var req setPasswordRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.svc.SetPassword(r.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		s.respondServiceError(w, err, "failed to change password")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSetAvatar(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	var req avatarRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.svc.SetAvatar(r.Context(), user, req.Avatar); err != nil {
		s.respondServiceError(w, err, "failed to set avatar")
		return
	}

	s.respondJSON(w, http.StatusOK, avatarRequest{Avatar: user.Avatar})
}

func (s *Server) handleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	if err := s.svc.DeleteAvatar(r.Context(), user); err != nil {
		s.respondServiceError(w, err, "failed to delete avatar")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	token, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondServiceError(w, err, "failed to log in")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"auth_token": token.Key})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.requireUser(w, r) == nil {
		return
	}

	// The middleware has already validated the header format.
	key := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Token "))
	if err := s.svc.Logout(r.Context(), key); err != nil {
		s.respondServiceError(w, err, "failed to log out")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

type subscriptionUser struct {
	*models.User
	Recipes      []recipeShort `json:"recipes"`
	RecipesCount int           `json:"recipes_count"`
}

type recipeShort struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func shortRecipes(recipes []*models.Recipe) []recipeShort {
	out := make([]recipeShort, 0, len(recipes))
	for _, recipe := range recipes {
		out = append(out, recipeShort{
			ID:          recipe.ID,
			Name:        recipe.Name,
			Image:       recipe.Image,
			CookingTime: recipe.CookingTime,
		})
	}
	return out
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	page, limit := parsePagination(r)
	recipesLimit := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("recipes_limit")); err == nil && v > 0 {
		recipesLimit = v
	}

	items, total, err := s.svc.Subscriptions(r.Context(), user.ID, limit, (page-1)*limit, recipesLimit)
	if err != nil {
		s.respondServiceError(w, err, "failed to list subscriptions")
		return
	}

	results := make([]subscriptionUser, 0, len(items))
	for _, item := range items {
		results = append(results, subscriptionUser{
			User:         item.User,
			Recipes:      shortRecipes(item.Recipes),
			RecipesCount: item.RecipesCount,
		})
	}

	s.respondJSON(w, http.StatusOK, paginate(r, total, page, limit, results))
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	authorID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	recipesLimit := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("recipes_limit")); err == nil && v > 0 {
		recipesLimit = v
	}

	item, err := s.svc.Subscribe(r.Context(), user.ID, authorID, recipesLimit)
	if err != nil {
		s.respondServiceError(w, err, "failed to subscribe")
		return
	}

	s.respondJSON(w, http.StatusCreated, subscriptionUser{
		User:         item.User,
		Recipes:      shortRecipes(item.Recipes),
		RecipesCount: item.RecipesCount,
	})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	authorID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := s.svc.Unsubscribe(r.Context(), user.ID, authorID); err != nil {
		s.respondServiceError(w, err, "failed to unsubscribe")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Tags & ingredients
// ---------------------------------------------------------------------------

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.Tags.List(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list tags")
		s.respondError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []*models.Tag{}
	}

	s.respondJSON(w, http.StatusOK, tags)
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}

	tag, err := s.svc.Tags.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get tag")
		s.respondError(w, http.StatusInternalServerError, "failed to get tag")
		return
	}
	if tag == nil {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}

	s.respondJSON(w, http.StatusOK, tag)
}

func (s *Server) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	filters := repository.IngredientFilters{Name: r.URL.Query().Get("name")}

	ingredients, err := s.svc.Ingredients.List(r.Context(), filters)
	if err != nil {
		s.logger.WithError(err).Error("failed to list ingredients")
		s.respondError(w, http.StatusInternalServerError, "failed to list ingredients")
		return
	}
	if ingredients == nil {
		ingredients = []*models.Ingredient{}
	}

	s.respondJSON(w, http.StatusOK, ingredients)
}

func (s *Server) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid ingredient id")
		return
	}

	ingredient, err := s.svc.Ingredients.GetByID(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to get ingredient")
		s.respondError(w, http.StatusInternalServerError, "failed to get ingredient")
		return
	}
	if ingredient == nil {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}

	s.respondJSON(w, http.StatusOK, ingredient)
}

// ---------------------------------------------------------------------------
// Recipes
// ---------------------------------------------------------------------------

type recipeIngredientRequest struct {
	ID     int64           `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

type recipeRequest struct {
	Ingredients []recipeIngredientRequest `json:"ingredients"`
	Tags        []int64                   `json:"tags"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name"`
	Text        string                    `json:"text"`
	CookingTime int                       `json:"cooking_time"`
}

func (r recipeRequest) toInput() service.RecipeInput {
	items := make([]service.IngredientAmount, 0, len(r.Ingredients))
	for _, item := range r.Ingredients {
		items = append(items, service.IngredientAmount{ID: item.ID, Amount: item.Amount})
	}
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		Image:       r.Image,
		CookingTime: r.CookingTime,
		TagIDs:      r.Tags,
		Ingredients: items,
	}
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r)
	q := r.URL.Query()

	filters := repository.RecipeFilters{
		ViewerID: viewerID(r),
		Limit:    limit,
		Offset:   (page - 1) * limit,
		TagSlugs: q["tags"],
	}
	if raw := q.Get("author"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.AuthorID = &id
		}
	}
	// The favorited / in-cart filters only make sense for an
	// authenticated viewer.
	if viewer := viewerID(r); viewer != 0 {
		if q.Get("is_favorited") == "1" {
			filters.FavoritedBy = &viewer
		}
		if q.Get("is_in_shopping_cart") == "1" {
			filters.InCartOf = &viewer
		}
	}

	recipes, total, err := s.svc.ListRecipes(r.Context(), filters)
	if err != nil {
		s.respondServiceError(w, err, "failed to list recipes")
		return
	}
	if recipes == nil {
		recipes = []*models.Recipe{}
	}

	s.respondJSON(w, http.StatusOK, paginate(r, total, page, limit, recipes))
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	var req recipeRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	recipe, err := s.svc.CreateRecipe(r.Context(), user, req.toInput())
	if err != nil {
		s.respondServiceError(w, err, "failed to create recipe")
		return
	}

	s.respondJSON(w, http.StatusCreated, recipe)
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	recipe, err := s.svc.GetRecipe(r.Context(), id, viewerID(r))
	if err != nil {
		s.respondServiceError(w, err, "failed to get recipe")
		return
	}

	s.respondJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	var req recipeRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	recipe, err := s.svc.UpdateRecipe(r.Context(), user, id, req.toInput())
	if err != nil {
		s.respondServiceError(w, err, "failed to update recipe")
		return
	}

	s.respondJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if err := s.svc.DeleteRecipe(r.Context(), user, id); err != nil {
		s.respondServiceError(w, err, "failed to delete recipe")
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	s.addRelation(w, r, s.svc.Favorite, "failed to favorite recipe")
}

func (s *Server) handleUnfavorite(w http.ResponseWriter, r *http.Request) {
	s.removeRelation(w, r, s.svc.Unfavorite, "failed to unfavorite recipe")
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	s.addRelation(w, r, s.svc.AddToCart, "failed to add recipe to cart")
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s.removeRelation(w, r, s.svc.RemoveFromCart, "failed to remove recipe from cart")
}

func (s *Server) addRelation(w http.ResponseWriter, r *http.Request,
	add func(ctx context.Context, userID, recipeID int64) (*models.Recipe, error), logMsg string) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	recipe, err := add(r.Context(), user.ID, id)
	if err != nil {
		s.respondServiceError(w, err, logMsg)
		return
	}

	s.respondJSON(w, http.StatusCreated, recipeShort{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	})
}

func (s *Server) removeRelation(w http.ResponseWriter, r *http.Request,
	remove func(ctx context.Context, userID, recipeID int64) error, logMsg string) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	if err := remove(r.Context(), user.ID, id); err != nil {
		s.respondServiceError(w, err, logMsg)
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Short links & shopping list
// ---------------------------------------------------------------------------

func (s *Server) handleGetLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}

	code, err := s.svc.ShortCode(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, err, "failed to build short link")
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"short-link": fmt.Sprintf("%s://%s/s/%s", scheme, r.Host, code),
	})
}

func (s *Server) handleShortLink(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.svc.ResolveShortCode(r.Context(), r.PathValue("code"))
	if err != nil {
		s.respondServiceError(w, err, "failed to resolve short link")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/recipes/%d", recipe.ID), http.StatusFound)
}

func (s *Server) handleDownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	entries, err := s.svc.ShoppingList(r.Context(), user.ID)
	if err != nil {
		s.respondServiceError(w, err, "failed to build shopping list")
		return
	}

	body := renderShoppingList(entries)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.WithError(err).Error("failed to write shopping list response")
	}
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
