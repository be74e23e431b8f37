// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


// Package rest serves cosmic ray rejection runs over HTTP.
package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"github.com/gin-gonic/gin"
	"github.com/mlnoga/crrej/internal/crrej"
	"github.com/mlnoga/crrej/internal/ops"
	"github.com/mlnoga/crrej/internal/pipeline"
)


// Listens and serves on the given address, e.g. ":8080"
func Serve(addr string, c *ops.Context) error {
	return NewRouter(c).Run(addr)
}

// Creates the router for the API. Runs are passed a fresh copy of the context
func NewRouter(c *ops.Context) *gin.Engine {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET ("/ping",   getPing)
			v1.POST("/reject", func(g *gin.Context) { postReject(g, c) })
		}
	}
	return r
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

func printArgs(logWriter io.Writer, prefix, suffix string, args interface{}) error {
	m,err:=json.MarshalIndent(args, "", "  ")
	if err!=nil { return err }
	fmt.Fprintf(logWriter, "%s%s%s", prefix, string(m), suffix)
	return nil
}

type postRejectArgs struct {
	FilePatterns []string    `json:"files"`
	pipeline.Options
	Config       *crrej.Config `json:"config"`
}

// Runs one rejection and streams its log as plain text. Errors after the
// header has been sent are reported in the last line of the log
func postReject(g *gin.Context, base *ops.Context) {
	args:=postRejectArgs{Options: *pipeline.NewOptionsDefault()}
	if err:=g.ShouldBindJSON(&args); err!=nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error() } )
		return
	}
	if args.Config==nil { args.Config=crrej.NewConfigDefault() }
	args.RestrictPaths=true

	logWriter := g.Writer
	header := logWriter.Header()
	header.Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	log:=ops.NewLogWriter(logWriter)
	c:=base.NewRun()
	c.Log=log
	if err:=printArgs(log, "Arguments:\n", "\n", args); err!=nil {
		fmt.Fprintf(log, "Error printing arguments: %s\n", err.Error())
		return
	}

	res, err:=pipeline.Run(args.FilePatterns, &args.Options, args.Config, c)
	if err!=nil {
		fmt.Fprintf(log, "%s: %s\n", pipeline.ErrorClass(err), err.Error())
	} else {
		fmt.Fprintf(log, "Run %s finished with status %s, %d pixels rejected\n", res.RunID, res.Status, res.Rejected)
	}
	logWriter.Flush()
}
