package auth

import (
	"context"
	"errors"
	"net/http"

	"yatra/db"
	"yatra/models"
	"yatra/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid Credentials"
)

type registrationInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input registrationInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}

	user := models.User{
		Name:     input.Name,
		Email:    models.NormalizeEmail(input.Email),
		Password: input.Password,
	}
	user.ApplyDefaults()
	if err := user.Validate(); err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	// Check if user already exists
	_, err := h.users.FindByEmail(ctx, user.Email)
	if err == nil {
		utils.RespondWithMsg(w, http.StatusBadRequest, msgUserExists)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		utils.RespondServerError(w, r, h.logger, err)
		return
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}
	user.Password = hashed

	if err := h.users.Create(ctx, &user); err != nil {
		// a concurrent registration can still win the unique index
		if errors.Is(err, db.ErrDuplicate) {
			utils.RespondWithMsg(w, http.StatusBadRequest, msgUserExists)
			return
		}
		utils.RespondError(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(user.ID.Hex())
	if err != nil {
		utils.RespondServerError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user registered", zap.String("userId", user.ID.Hex()))
	utils.RespondWithJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input loginInput
	if err := utils.DecodeJSON(w, r, &input); err != nil {
		utils.RespondError(w, r, h.logger, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		utils.RespondWithMsg(w, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	storedUser, err := h.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(input.Password))
			utils.RespondWithMsg(w, http.StatusBadRequest, msgInvalidCredentials)
			return
		}
		utils.RespondServerError(w, r, h.logger, err)
		return
	}

	if !CheckPassword(input.Password, storedUser.Password) {
		utils.RespondWithMsg(w, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	token, err := h.tokens.Issue(storedUser.ID.Hex())
	if err != nil {
		utils.RespondServerError(w, r, h.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, tokenResponse{Token: token})
}
