package main

//go:generate swag init -g cmd/macrocal/main.go -o docs

// @title           Macro Calendar API
// @version         0.1.0
// @description     Economic release calendar sync, revision import and catalog reads.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
