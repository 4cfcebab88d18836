// Package mongo provides MongoDB connection management for the toolkit.
//
// Configuration is entirely environment-driven (see Config), retry logic
// handles transient failures during startup, and pool defaults are sized for
// typical web workloads without manual tuning.
//
// # Usage
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	db, err := mongo.ConnectDatabase(ctx, cfg, "classkit")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store := mongodb.New(db.Collection("notifications"))
//
// Connection failures are wrapped in package errors compatible with
// errors.Is for clean handling in application code.
package mongo
