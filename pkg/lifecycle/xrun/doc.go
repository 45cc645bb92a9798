// Package xrun 协调一组长期运行的服务：任一服务失败或父 context 取消时，
// 其余服务都会收到取消信号，Wait 返回第一个有意义的退出原因。
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithLogger(logger))
//	g.Go("metrics-http", xrun.HTTPServer(srv, ln, 5*time.Second))
//	g.Go("consumer", consume)
//	g.Go("stats", xrun.Ticker(time.Minute, false, logStats))
//	err := g.Wait()
//
// 服务以 Cancel(cause) 主动结束整组时，cause 作为 Wait 的返回值；
// 需要"正常结束整组"时使用 ErrStop 作为 cause，Wait 返回 nil。
package xrun
