/*
 * MIT License
 *
 * Copyright (c) 2026 zmqruntime authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package execution_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/trissim/zmqruntime/config"
	"github.com/trissim/zmqruntime/execution"
	"github.com/trissim/zmqruntime/messages"
	"github.com/trissim/zmqruntime/transport"
)

type fakeTask struct {
	plateID string
}

func serializeFakeTask(task interface{}, cfg config.Config) (messages.ExecuteRequest, error) {
	t, ok := task.(fakeTask)
	if !ok {
		return messages.ExecuteRequest{}, fmt.Errorf("not a fakeTask")
	}
	return messages.ExecuteRequest{
		PlateID:      t.plateID,
		PipelineCode: "pipe",
		ConfigCode:   "cfg",
	}, nil
}

var _ = Describe("execution.Client", func() {
	var (
		cfg        config.Config
		dataPort   int
		exec       *stubExecutor
		srv        *execution.Server
		cl         *execution.Client
		srvStopped bool
	)

	BeforeEach(func() {
		cfg = config.Default()
		dataPort = freePort()
		exec = &stubExecutor{}
		srv = execution.NewServer("127.0.0.1", dataPort, transport.TCP, cfg, nil, exec)
		Expect(srv.Start()).To(Succeed())
		srvStopped = false

		cl = execution.NewClient("127.0.0.1", dataPort, transport.TCP, cfg, nil, nil, serializeFakeTask)
		Expect(cl.Connect(2 * time.Second)).To(Succeed())
	})

	AfterEach(func() {
		cl.Disconnect()
		if !srvStopped {
			srv.Stop()
		}
	})

	It("submits a task and waits for completion via Execute", func() {
		proj, err := cl.Execute(fakeTask{plateID: "plate-x"})
		Expect(err).ToNot(HaveOccurred())
		Expect(proj.Status).To(Equal(messages.Complete))
		Expect(proj.ResultsSummary["well_count"]).To(Equal(2))
	})

	It("reports a failed execution through WaitForCompletion", func() {
		exec.Fail = true
		proj, err := cl.Execute(fakeTask{plateID: "plate-y"})
		Expect(err).ToNot(HaveOccurred())
		Expect(proj.Status).To(Equal(messages.Failed))
	})

	It("PollStatus reports Unknown execution_id for a bogus id", func() {
		resp, err := cl.PollStatus("nope")
		Expect(err).ToNot(HaveOccurred())
		Expect(resp["status"]).To(Equal(string(messages.ErrorType)))
	})

	It("CancelExecution cancels a running execution", func() {
		exec.Delay = 500 * time.Millisecond
		resp, err := cl.SubmitExecution(fakeTask{plateID: "plate-slow"})
		Expect(err).ToNot(HaveOccurred())
		id, _ := resp["execution_id"].(string)

		Eventually(func() string {
			s, _ := cl.PollStatus(id)
			st, _ := s["exec_status"].(string)
			return st
		}, time.Second, 10*time.Millisecond).Should(Equal(string(messages.Running)))

		cancelResp, err := cl.CancelExecution(id)
		Expect(err).ToNot(HaveOccurred())
		Expect(cancelResp["status"]).To(Equal(string(messages.Ok)))
	})

	It("Ping/GetServerInfo return the server's pong", func() {
		resp, err := cl.Ping()
		Expect(err).ToNot(HaveOccurred())
		Expect(resp["ready"]).To(Equal(true))

		resp, err = cl.GetServerInfo()
		Expect(err).ToNot(HaveOccurred())
		Expect(resp["server"]).To(Equal("ExecutionServer"))
	})

	It("WaitForCompletion synthesizes a lost-connection projection after the server disappears", func() {
		exec.Delay = 5 * time.Second
		resp, err := cl.SubmitExecution(fakeTask{plateID: "plate-gone"})
		Expect(err).ToNot(HaveOccurred())
		id, _ := resp["execution_id"].(string)

		srv.Stop()
		srvStopped = true

		proj := cl.WaitForCompletion(id, 50*time.Millisecond, 3)
		Expect(proj.Status).To(Equal(messages.Cancelled))
		Expect(proj.Error).To(Equal("Lost connection to server"))
	})

	It("delivers progress updates to the registered callback", func() {
		received := make(chan messages.ProgressMessage, 1)
		cl.SetProgressCallback(func(msg messages.ProgressMessage) {
			received <- msg
		})
		// SubmitExecution is what starts the progress listener goroutine.
		_, err := cl.SubmitExecution(fakeTask{plateID: "plate-progress"})
		Expect(err).ToNot(HaveOccurred())

		srv.SendProgressUpdate("A01", "segment", "done")

		Eventually(received, 2*time.Second).Should(Receive())
	})
})
