// Package helpers provides the fixtures shared by the integration suite.
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	v1 "github.com/stacklok/issue-auditor/internal/api/v1"
	auditor "github.com/stacklok/issue-auditor/internal/app"
	"github.com/stacklok/issue-auditor/internal/config"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/status"
)

// ServerTestHelper manages the auditor lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	httpClient *http.Client

	cancel context.CancelFunc
	done   chan error
}

// NewServerTestHelper creates a helper that will run the auditor with the config at configPath
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// StartServer builds the application from the config file and serves it on a free port
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := auditor.NewAuditorApp(s.ctx,
		auditor.WithConfig(cfg),
		auditor.WithShutdownTimeout(5*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.baseURL = "http://" + lis.Addr().String()

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- app.Serve(ctx, lis)
	}()
	return nil
}

// StopServer cancels the server and waits for it to return
func (s *ServerTestHelper) StopServer() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	select {
	case err := <-s.done:
		return err
	case <-time.After(15 * time.Second):
		return fmt.Errorf("server did not stop")
	}
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// TargetID returns the id of the registered target named fullName
func (s *ServerTestHelper) TargetID(fullName string) uuid.UUID {
	var listed v1.ListTargetsResponse
	s.getJSON("/v1/targets", &listed)
	for _, target := range listed.Targets {
		if target.FullName() == fullName {
			return target.ID
		}
	}
	ginkgo.Fail(fmt.Sprintf("target %s is not registered", fullName))
	return uuid.Nil
}

// SubmitJob posts a job and returns the status code and whether it was queued
func (s *ServerTestHelper) SubmitJob(kind jobs.Kind, targetID uuid.UUID, args any) (int, bool) {
	req := v1.SubmitJobRequest{Type: kind, TargetID: targetID}
	if args != nil {
		raw, err := json.Marshal(args)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		req.Args = raw
	}

	body, err := json.Marshal(req)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	resp, err := s.httpClient.Post(s.baseURL+"/v1/jobs", "application/json", bytes.NewReader(body))
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()

	var out v1.SubmitJobResponse
	if resp.StatusCode < http.StatusBadRequest {
		gomega.Expect(json.NewDecoder(resp.Body).Decode(&out)).To(gomega.Succeed())
	}
	return resp.StatusCode, out.Queued
}

// TargetStatus returns the sync status of a target
func (s *ServerTestHelper) TargetStatus(targetID uuid.UUID) *status.TargetStatus {
	var st status.TargetStatus
	s.getJSON(fmt.Sprintf("/v1/targets/%s/status", targetID), &st)
	return &st
}

// WaitForPhase waits until the target reaches phase
func (s *ServerTestHelper) WaitForPhase(targetID uuid.UUID, phase status.Phase) {
	gomega.Eventually(func() status.Phase {
		return s.TargetStatus(targetID).Phase
	}, 15*time.Second, 50*time.Millisecond).Should(gomega.Equal(phase))
}

// Jobs lists the jobs of a target, newest first
func (s *ServerTestHelper) Jobs(targetID uuid.UUID) []*jobs.Job {
	var listed v1.ListJobsResponse
	s.getJSON("/v1/jobs?targetId="+targetID.String(), &listed)
	return listed.Jobs
}

func (s *ServerTestHelper) getJSON(path string, out any) {
	resp, err := s.httpClient.Get(s.baseURL + path)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()
	gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK), "GET %s", path)
	gomega.Expect(json.NewDecoder(resp.Body).Decode(out)).To(gomega.Succeed())
}

// WriteConfigYAML writes cfg to dir/config.yaml and returns its path
func WriteConfigYAML(dir string, cfg *config.Config) string {
	data, err := yaml.Marshal(cfg)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, data, 0o600)).To(gomega.Succeed())
	return path
}
