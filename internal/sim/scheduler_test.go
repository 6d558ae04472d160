package sim

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/neurosim/internal/entity"
)

var _ = Describe("Scheduler", func() {
	var (
		session *Session
		counter *counterSim
		sched   *Scheduler
	)

	BeforeEach(func() {
		counter = newCounterSim()
		var err error
		session, err = NewSession(counter, DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		sched = NewScheduler(session, 2*time.Millisecond, nil)
	})

	AfterEach(func() {
		sched.Close()
	})

	It("rejects intents before Start", func() {
		Expect(sched.SetRunning(true)).To(MatchError(ErrNotStarted))
	})

	It("does not tick while paused", func() {
		sched.Start(context.Background())
		Consistently(sched.Ticks, 50*time.Millisecond, 5*time.Millisecond).Should(BeZero())
	})

	It("ticks while running and publishes frames", func() {
		sched.Start(context.Background())
		Expect(sched.SetRunning(true)).To(Succeed())

		Eventually(sched.Ticks, time.Second, 2*time.Millisecond).Should(BeNumerically(">=", 5))

		var f entity.Frame
		Eventually(sched.Frames(), time.Second).Should(Receive(&f))
		Expect(f.Sim).To(Equal("counter"))
		Expect(f.Session).To(Equal(session.ID()))
	})

	It("stops ticking after pause", func() {
		sched.Start(context.Background())
		Expect(sched.SetRunning(true)).To(Succeed())
		Eventually(sched.Ticks, time.Second, 2*time.Millisecond).Should(BeNumerically(">", 0))

		Expect(sched.SetRunning(false)).To(Succeed())
		paused := sched.Ticks()
		Consistently(sched.Ticks, 40*time.Millisecond, 5*time.Millisecond).Should(Equal(paused))
	})

	It("stops ticking once the ceiling is reached", func() {
		Expect(session.SetMaxIterations(3)).To(Succeed())
		sched.Start(context.Background())
		Expect(sched.SetRunning(true)).To(Succeed())

		Eventually(sched.Ticks, time.Second, 2*time.Millisecond).Should(BeNumerically("==", 3))
		Consistently(sched.Ticks, 30*time.Millisecond, 5*time.Millisecond).Should(BeNumerically("==", 3))

		var running bool
		Expect(sched.Do(func(s *Session) { running = s.Running() })).To(Succeed())
		Expect(running).To(BeFalse())
	})

	It("never ticks after Close", func() {
		sched.Start(context.Background())
		Expect(sched.SetRunning(true)).To(Succeed())
		Eventually(sched.Ticks, time.Second, 2*time.Millisecond).Should(BeNumerically(">", 0))

		sched.Close()
		closed := sched.Ticks()
		Consistently(sched.Ticks, 40*time.Millisecond, 5*time.Millisecond).Should(Equal(closed))
		Expect(sched.Reset()).To(MatchError(ErrClosed))
	})

	It("serializes concurrent intents with ticks", func() {
		sched.Start(context.Background())
		Expect(sched.SetRunning(true)).To(Succeed())

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				Expect(sched.SetParameter("gain", float64(i%5+1))).To(Succeed())
			}(i)
		}
		wg.Wait()

		var gain float64
		Expect(sched.Do(func(s *Session) { gain = s.Params()["gain"] })).To(Succeed())
		Expect(gain).To(BeNumerically(">=", 1))
		Expect(gain).To(BeNumerically("<=", 5))
	})

	It("returns parameter errors from the session", func() {
		sched.Start(context.Background())
		Expect(sched.SetParameter("bogus", 1)).To(MatchError(ErrUnknownParam))
		_, err := sched.SelectEntity("missing")
		Expect(err).To(MatchError(ErrUnknownEntity))

		d, err := sched.SelectEntity("n0")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Kind).To(Equal("counter"))
	})

	It("keeps only the latest frame for slow readers", func() {
		sched.Start(context.Background())
		Expect(sched.SetRunning(true)).To(Succeed())
		Eventually(sched.Ticks, time.Second, 2*time.Millisecond).Should(BeNumerically(">=", 10))
		Expect(sched.SetRunning(false)).To(Succeed())

		var f entity.Frame
		Eventually(sched.Frames()).Should(Receive(&f))
		Expect(f.Iteration).To(BeNumerically(">=", 10))
		Expect(f.Running).To(BeFalse())
		Consistently(sched.Frames(), 20*time.Millisecond).ShouldNot(Receive())
	})
})
