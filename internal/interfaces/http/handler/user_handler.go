package handler

import (
	"net/http"
	"strconv"

	"github.com/YouSangSon/docstore-service/internal/application/dto"
	"github.com/YouSangSon/docstore-service/internal/application/usecase"
	"github.com/YouSangSon/docstore-service/internal/interfaces/http/middleware"
	"github.com/YouSangSon/docstore-service/internal/pkg/errors"
	"github.com/gin-gonic/gin"
)

// UserHandler는 사용자 관련 HTTP 핸들러입니다
type UserHandler struct {
	userUC *usecase.UserUseCase
}

// NewUserHandler는 새로운 UserHandler를 생성합니다
func NewUserHandler(userUC *usecase.UserUseCase) *UserHandler {
	return &UserHandler{userUC: userUC}
}

// Health는 사용자 라우트 그룹의 생존 확인입니다
func (h *UserHandler) Health(c *gin.Context) {
	c.String(http.StatusOK, "Users Ok")
}

// Create godoc
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      dto.CreateUserRequest  true  "User creation request"
// @Success      201      {object}  dto.CreateUserResponse
// @Router       /api/users/create [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.BadRequest("invalid request body").WithDetails(err.Error()))
		return
	}

	user, tokens, err := h.userUC.CreateUser(c.Request.Context(), &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateUserResponse{User: user, Tokens: tokens})
}

// Get godoc
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  model.User
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userUC.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// List godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        page       query     int  false  "Page (1-based)"
// @Param        page_size  query     int  false  "Page size"
// @Success      200        {object}  dto.UserPage
// @Router       /api/users/all [get]
func (h *UserHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	pageSize, err := queryInt(c, "page_size")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	result, err := h.userUC.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stats godoc
// @Summary      User counts by status
// @Tags         users
// @Produce      json
// @Success      200  {object}  dto.UserStats
// @Router       /api/users/stats [get]
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.userUC.UserStats(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Update godoc
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "User ID"
// @Param        request  body      dto.UpdateUserRequest  true  "Fields to change"
// @Success      200      {object}  model.User
// @Router       /api/users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.BadRequest("invalid request body").WithDetails(err.Error()))
		return
	}

	user, err := h.userUC.UpdateUser(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Delete godoc
// @Summary      Delete a user
// @Tags         users
// @Param        id  path  string  true  "User ID"
// @Success      204
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userUC.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Refresh godoc
// @Summary      Exchange a refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      dto.RefreshTokenRequest  true  "Refresh token"
// @Success      200      {object}  auth.TokenPair
// @Router       /api/auth/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.BadRequest("invalid request body").WithDetails(err.Error()))
		return
	}

	pair, err := h.userUC.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// 없으면 0을 반환하고 페이징 정규화에 맡깁니다
func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.BadRequest("invalid " + key)
	}
	return v, nil
}
