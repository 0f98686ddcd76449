package api

import "github.com/R0eii/Tucan/pkg/models"

type messageResponse struct {
	Message string `json:"message"`
}

type simulationResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type updateDetailsRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type renameCompanyRequest struct {
	NewName string `json:"newName"`
}
