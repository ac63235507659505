package restyutil

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

type instrumentCtx struct {
	output    InstrumentOutput
	idcounter *uint64
}

// InstrumentClient dumps every request/response pair made by the client to
// `output`, a nil output makes this a no-op.
func InstrumentClient(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}
	var idcounter uint64
	i := instrumentCtx{output: output, idcounter: &idcounter}
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

func (i instrumentCtx) nextId(method string) string {
	return fmt.Sprintf("%04d-%s.txt", atomic.AddUint64(i.idcounter, 1), method)
}

func (i instrumentCtx) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	i.output.Write(i.nextId(res.Request.Method), formatHttpMessage(res))
	return nil
}

func (i instrumentCtx) onError(req *resty.Request, err error) {
	id := i.nextId(req.Method)
	i.output.Write(id, fmt.Sprintf("%s %s\n\n%s", req.Method, req.URL, err.Error()))
	slog.Debug("dumped failed request", "message_id", id, "url", req.URL)
}
