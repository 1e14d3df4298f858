package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/informatics-api/internal/service"
)

// AdminHandler serves the operator endpoints behind the admin guard.
type AdminHandler struct {
	accounts *service.AccountService
}

func NewAdminHandler(accounts *service.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// AccountView is the listing shape for an account.
type AccountView struct {
	ID         uint      `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListUsers returns a page of registered accounts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, total, err := h.accounts.List(limit, offset)
	if err != nil {
		log.Printf("[AdminHandler] failed to list accounts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
		return
	}

	views := make([]AccountView, 0, len(users))
	for _, u := range users {
		views = append(views, AccountView{
			ID:         u.ID,
			FullName:   u.FullName,
			Email:      u.Email,
			IsVerified: u.IsVerified,
			Role:       u.Role,
			CreatedAt:  u.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users": views,
		"total": total,
	})
}

// ExportUsers streams the full account list as an xlsx workbook.
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	const sheet = "Accounts"

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[AdminHandler] failed to close workbook: %v", err)
		}
	}()

	index, err := f.NewSheet(sheet)
	if err != nil {
		log.Printf("[AdminHandler] failed to create sheet: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Full Name", "Email", "Verified", "Role", "Created At"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, title)
	}

	row := 2
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		users, _, err := h.accounts.List(pageSize, offset)
		if err != nil {
			log.Printf("[AdminHandler] failed to export accounts: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
			return
		}
		if len(users) == 0 {
			break
		}
		for _, u := range users {
			values := []interface{}{u.ID, u.FullName, u.Email, u.IsVerified, u.Role, u.CreatedAt.Format(time.RFC3339)}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			row++
		}
		if len(users) < pageSize {
			break
		}
	}

	filename := fmt.Sprintf("accounts-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[AdminHandler] failed to write workbook: %v", err)
	}
}
