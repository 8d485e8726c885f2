package integration

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/issue-auditor/internal/config"
	"github.com/stacklok/issue-auditor/internal/issues"
	"github.com/stacklok/issue-auditor/internal/jobs"
	"github.com/stacklok/issue-auditor/internal/status"
	"github.com/stacklok/issue-auditor/test-integration/auditor/helpers"
)

const testToken = "gho_integration"

var repoCounter atomic.Int64

// uniqueRepo keeps specs isolated in the shared database
func uniqueRepo(prefix string) string {
	return fmt.Sprintf("integration/%s-%d-%d", prefix, GinkgoParallelProcess(), repoCounter.Add(1))
}

var _ = Describe("Background sync", func() {
	var (
		mock     *helpers.GitHubMock
		server   *helpers.ServerTestHelper
		store    issues.Store
		repo     string
		targetID uuid.UUID
		base     time.Time
	)

	BeforeEach(func() {
		mock = helpers.NewGitHubMock(2)
		DeferCleanup(mock.Close)

		store = issues.NewDBStore(pool)
		repo = uniqueRepo("sync")
		base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		dir := createTempDir("auditor-integration-")
		tokenFile := filepath.Join(dir, "token")
		Expect(os.WriteFile(tokenFile, []byte(testToken+"\n"), 0o600)).To(Succeed())

		configPath := helpers.WriteConfigYAML(dir, &config.Config{
			Storage:  config.StorageConfig{Type: config.StorageTypeDatabase},
			Database: dbConfig,
			Jobs:     config.JobsConfig{Concurrency: 5},
			GitHub: config.GitHubConfig{
				Endpoint:           mock.URL,
				MinRequestInterval: "10ms",
				PageSize:           2,
			},
			Targets: []config.TargetConfig{
				{Repository: repo, Owner: "octocat", TokenFile: tokenFile},
			},
		})

		server = helpers.NewServerTestHelper(ctx, configPath)
		Expect(server.StartServer()).To(Succeed())
		DeferCleanup(func() {
			Expect(server.StopServer()).To(Succeed())
		})
		server.WaitForServerReady(10 * time.Second)

		targetID = server.TargetID(repo)
	})

	completedJobs := func() int {
		n := 0
		for _, job := range server.Jobs(targetID) {
			if job.Status == jobs.StatusCompleted {
				n++
			}
		}
		return n
	}

	Context("issue fetch", func() {
		BeforeEach(func() {
			mock.AddIssues(repo,
				helpers.MockItem{Number: 1, Title: "first", UpdatedAt: base, Comments: []string{"great work", "thanks"}},
				helpers.MockItem{Number: 2, Title: "second", UpdatedAt: base.Add(time.Hour), Comments: []string{"broken again"}},
				helpers.MockItem{Number: 3, Title: "third", UpdatedAt: base.Add(2 * time.Hour)},
			)
		})

		It("stores every page and marks the target completed", func() {
			code, queued := server.SubmitJob(jobs.KindIssueFetch, targetID, nil)
			Expect(code).To(Equal(http.StatusAccepted))
			Expect(queued).To(BeTrue())

			server.WaitForPhase(targetID, status.PhaseCompleted)

			st := server.TargetStatus(targetID)
			Expect(st.CurrentJobType).To(BeNil())

			items, err := store.ListItems(ctx, targetID, issues.KindIssue)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(3))

			mark, err := store.GetWatermark(ctx, targetID, issues.ResourceIssues)
			Expect(err).NotTo(HaveOccurred())
			Expect(mark).NotTo(BeNil())
			Expect(mark.Equal(base.Add(2 * time.Hour))).To(BeTrue())

			calls := mock.Calls(repo, "issues")
			Expect(calls).To(HaveLen(2))
			for _, call := range calls {
				Expect(call.Token).To(Equal(testToken))
			}

			unscored, err := store.ListUnscoredComments(ctx, targetID, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(unscored).To(HaveLen(3))

			list := server.Jobs(targetID)
			Expect(list).To(HaveLen(1))
			Expect(list[0].Status).To(Equal(jobs.StatusCompleted))
			Expect(list[0].StartedAt).NotTo(BeNil())
			Expect(list[0].CompletedAt).NotTo(BeNil())
		})

		It("resumes from the stored watermark", func() {
			server.SubmitJob(jobs.KindIssueFetch, targetID, nil)
			Eventually(completedJobs, 15*time.Second, 50*time.Millisecond).Should(Equal(1))

			mock.AddIssues(repo, helpers.MockItem{Number: 4, Title: "fourth", UpdatedAt: base.Add(3 * time.Hour)})

			code, queued := server.SubmitJob(jobs.KindIssueFetch, targetID, nil)
			Expect(code).To(Equal(http.StatusAccepted))
			Expect(queued).To(BeTrue())
			Eventually(completedJobs, 15*time.Second, 50*time.Millisecond).Should(Equal(2))

			calls := mock.Calls(repo, "issues")
			last := calls[len(calls)-1]
			Expect(last.Variables["since"]).To(Equal(base.Add(2 * time.Hour).Format(time.RFC3339)))

			items, err := store.ListItems(ctx, targetID, issues.KindIssue)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(4))
		})
	})

	Context("pull requests and sentiment", func() {
		BeforeEach(func() {
			mock.AddPullRequests(repo,
				helpers.MockItem{Number: 10, Title: "feature", UpdatedAt: base, Comments: []string{"love it", "looks good"}},
				helpers.MockItem{Number: 11, Title: "fix", UpdatedAt: base.Add(time.Minute), Comments: []string{"this is terrible"}},
			)
		})

		It("syncs pull requests, scores their comments and lists incrementally through search", func() {
			server.SubmitJob(jobs.KindPRFetch, targetID, nil)
			Eventually(completedJobs, 15*time.Second, 50*time.Millisecond).Should(Equal(1))

			items, err := store.ListItems(ctx, targetID, issues.KindPullRequest)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(mock.Calls(repo, "pullRequests")).To(HaveLen(1))

			unscored, err := store.ListUnscoredComments(ctx, targetID, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(unscored).To(HaveLen(3))

			server.SubmitJob(jobs.KindSentiment, targetID, nil)
			Eventually(completedJobs, 15*time.Second, 50*time.Millisecond).Should(Equal(2))

			unscored, err = store.ListUnscoredComments(ctx, targetID, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(unscored).To(BeEmpty())

			server.SubmitJob(jobs.KindPRFetch, targetID, nil)
			Eventually(completedJobs, 15*time.Second, 50*time.Millisecond).Should(Equal(3))
			Expect(mock.Calls(repo, "search")).To(HaveLen(1))
		})
	})

	Context("when the provider fails", func() {
		BeforeEach(func() {
			mock.FailRepo(repo, "RATE_LIMITED")
		})

		It("fails the job and the target with the provider's message", func() {
			server.SubmitJob(jobs.KindIssueFetch, targetID, nil)
			server.WaitForPhase(targetID, status.PhaseFailed)

			list := server.Jobs(targetID)
			Expect(list).To(HaveLen(1))
			Expect(list[0].Status).To(Equal(jobs.StatusFailed))
			Expect(list[0].Error).To(ContainSubstring("mock failure"))

			// A failed job does not block a fresh submission
			code, queued := server.SubmitJob(jobs.KindIssueFetch, targetID, nil)
			Expect(code).To(Equal(http.StatusAccepted))
			Expect(queued).To(BeTrue())
		})
	})

	Context("deduplication", func() {
		It("refuses an equivalent job while one is processing", func() {
			mock.AddIssues(repo, helpers.MockItem{Number: 1, Title: "only", UpdatedAt: base})
			release := mock.Hold()
			DeferCleanup(release)

			code, queued := server.SubmitJob(jobs.KindIssueFetch, targetID, map[string]any{"full": true})
			Expect(code).To(Equal(http.StatusAccepted))
			Expect(queued).To(BeTrue())

			server.WaitForPhase(targetID, status.PhaseInProgress)
			st := server.TargetStatus(targetID)
			Expect(st.CurrentJobType).NotTo(BeNil())
			Expect(*st.CurrentJobType).To(Equal(string(jobs.KindIssueFetch)))

			code, queued = server.SubmitJob(jobs.KindIssueFetch, targetID, map[string]any{"full": true})
			Expect(code).To(Equal(http.StatusOK))
			Expect(queued).To(BeFalse())

			release()
			server.WaitForPhase(targetID, status.PhaseCompleted)
			Expect(server.Jobs(targetID)).To(HaveLen(1))
		})
	})

	Context("single item refresh", func() {
		BeforeEach(func() {
			mock.AddIssues(repo, helpers.MockItem{Number: 5, Title: "original", UpdatedAt: base})
		})

		It("re-fetches one issue without moving the watermark", func() {
			server.SubmitJob(jobs.KindSingleIssueRefresh, targetID, map[string]any{"number": 5})
			Eventually(completedJobs, 15*time.Second, 50*time.Millisecond).Should(Equal(1))

			items, err := store.ListItems(ctx, targetID, issues.KindIssue)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Title).To(Equal("original"))

			mark, err := store.GetWatermark(ctx, targetID, issues.ResourceIssues)
			Expect(err).NotTo(HaveOccurred())
			Expect(mark).To(BeNil())
			Expect(mock.Calls(repo, "issue")).To(HaveLen(1))
		})

		It("fails when the issue does not exist", func() {
			server.SubmitJob(jobs.KindSingleIssueRefresh, targetID, map[string]any{"number": 99})
			server.WaitForPhase(targetID, status.PhaseFailed)

			list := server.Jobs(targetID)
			Expect(list).To(HaveLen(1))
			Expect(list[0].Error).To(ContainSubstring("not found"))
		})

		It("fails schema validation before calling the provider", func() {
			server.SubmitJob(jobs.KindSingleIssueRefresh, targetID, map[string]any{"number": 0})
			server.WaitForPhase(targetID, status.PhaseFailed)

			list := server.Jobs(targetID)
			Expect(list).To(HaveLen(1))
			Expect(list[0].Error).To(ContainSubstring("/number"))
			Expect(mock.Calls(repo, "issue")).To(BeEmpty())
		})
	})
})
