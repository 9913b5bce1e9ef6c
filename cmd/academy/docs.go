package main

//go:generate swag init -g cmd/academy/main.go -o docs

// @title           Academy API
// @version         0.1.0
// @description     Daily O/X market prediction questions, scoring and season leaderboards.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
