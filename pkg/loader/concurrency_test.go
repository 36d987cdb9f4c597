package loader

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chazu/libload/pkg/catalogue"
)

// gatedNativeLoader blocks every load until its gate is opened
type gatedNativeLoader struct {
	*mockNativeLoader
	gate    chan struct{}
	entered chan string
}

func newGatedNativeLoader() *gatedNativeLoader {
	return &gatedNativeLoader{
		mockNativeLoader: newMockNativeLoader(),
		gate:             make(chan struct{}),
		entered:          make(chan string, 64),
	}
}

func (g *gatedNativeLoader) LoadLibrary(ctx context.Context, fileName string) error {
	g.entered <- fileName
	<-g.gate
	return g.mockNativeLoader.LoadLibrary(ctx, fileName)
}

var _ = Describe("Concurrent loading", func() {
	var (
		cat    *catalogue.Catalogue
		status *StatusTable
		ctx    context.Context
	)

	BeforeEach(func() {
		cat = buildCatalogue(GinkgoT(), []string{"glog", "folly", "fabric", "reactnative", "turbomodule"}, map[string][]string{
			"folly":       {"glog"},
			"fabric":      {"folly", "glog"},
			"reactnative": {"fabric", "folly"},
			"turbomodule": {"folly"},
		})
		status = NewStatusTable()
		ctx = context.Background()
	})

	Context("When overlapping requests run at the same time", func() {
		It("should call the native loader once per library", func() {
			native := newMockNativeLoader()
			native.loadDelay = 5 * time.Millisecond
			l := New(cat, native, WithStatusTable(status))

			var wg sync.WaitGroup
			errs := make(chan error, 20)
			for i := 0; i < 20; i++ {
				target := "reactnative"
				if i%2 == 1 {
					target = "turbomodule"
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := l.LoadWithDependencies(ctx, target)
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
			for _, name := range cat.Names() {
				Expect(native.callCount(name)).To(Equal(1), "library %s", name)
			}
			Expect(status.Count(LoadStateLoaded)).To(Equal(5))
		})

		It("should keep dependencies ahead of dependents in the native call order", func() {
			native := newMockNativeLoader()
			l := New(cat, native, WithStatusTable(status), WithMaxConcurrency(8))

			_, err := l.LoadAll(ctx, []string{"reactnative", "turbomodule", "fabric", "folly"})
			Expect(err).NotTo(HaveOccurred())

			position := make(map[string]int)
			for i, name := range native.getCalls() {
				position[name] = i
			}
			for id := range cat.Len() {
				deps, err := cat.DependenciesOf(catalogue.ID(id))
				Expect(err).NotTo(HaveOccurred())
				for _, dep := range deps {
					Expect(position[cat.Name(dep)]).To(BeNumerically("<", position[cat.Name(catalogue.ID(id))]))
				}
			}
		})
	})

	Context("When a library is still loading", func() {
		It("should make other requests wait for it to settle", func() {
			native := newGatedNativeLoader()
			l := New(cat, native, WithStatusTable(status))

			first := make(chan error, 1)
			go func() {
				_, err := l.LoadWithDependencies(ctx, "folly")
				first <- err
			}()
			Eventually(native.entered).Should(Receive(Equal("libglog.so")))
			Expect(status.GetState(0)).To(Equal(LoadStatePending))

			second := make(chan []Outcome, 1)
			go func() {
				defer GinkgoRecover()
				outcomes, err := l.LoadWithDependencies(ctx, "glog")
				Expect(err).NotTo(HaveOccurred())
				second <- outcomes
			}()
			Consistently(second, 50*time.Millisecond).ShouldNot(Receive())

			close(native.gate)

			var outcomes []Outcome
			Eventually(second).Should(Receive(&outcomes))
			Expect(outcomes).To(HaveLen(1))
			Expect(outcomes[0].Kind).To(Equal(OutcomeSkipped))
			Expect(outcomes[0].Reason).To(Equal(ReasonAlreadyLoaded))
			Eventually(first).Should(Receive(BeNil()))
			Expect(native.callCount("libglog.so")).To(Equal(1))
		})

		It("should stop waiting when the context is cancelled", func() {
			native := newGatedNativeLoader()
			defer close(native.gate)
			l := New(cat, native, WithStatusTable(status))

			go func() {
				defer GinkgoRecover()
				_, _ = l.LoadWithDependencies(ctx, "glog")
			}()
			Eventually(native.entered).Should(Receive())

			waitCtx, cancel := context.WithCancel(ctx)
			result := make(chan error, 1)
			go func() {
				_, err := l.LoadWithDependencies(waitCtx, "glog")
				result <- err
			}()
			Consistently(result, 20*time.Millisecond).ShouldNot(Receive())

			cancel()
			var err error
			Eventually(result).Should(Receive(&err))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Context("When a shared dependency fails", func() {
		It("should report the failure to every waiting request", func() {
			native := newMockNativeLoader()
			native.loadDelay = 5 * time.Millisecond
			native.setFailName("libglog.so", errors.New("missing"))
			l := New(cat, native, WithStatusTable(status))

			results, err := l.LoadAll(ctx, []string{"folly", "turbomodule", "fabric"})
			Expect(err).NotTo(HaveOccurred())
			Expect(native.callCount("libglog.so")).To(Equal(1))

			for _, result := range results {
				Expect(result.Outcomes[0].Name).To(Equal("libglog.so"))
				Expect(result.Outcomes[0].Kind).To(Equal(OutcomeFailed))
			}
			Expect(status.GetState(0)).To(Equal(LoadStateFailed))
		})
	})
})
