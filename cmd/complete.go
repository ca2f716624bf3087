package cmd

import (
	"flag"

	"github.com/etnz/brokerhub"
	"github.com/etnz/brokerhub/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// container is a command grouping subcommands, such as members.
type container interface {
	subcommands() []subcommands.Command
}

// predictor is a command that knows the values of some of its flags or of
// its arguments.
type predictor interface {
	predictFlags() map[string]complete.Predictor
	predictArgs() complete.Predictor
}

var knownValues = map[string]complete.Predictor{
	"config":    predict.Files("*.toml"),
	"log-level": predict.Set{"debug", "info", "warn", "error"},
	"format":    predict.Set{"md", "html", "json"},
	"sort":      predict.Set{"value", "pnl", "qty"},
	"role":      predict.Set{string(brokerhub.RoleAdmin), string(brokerhub.RoleMember)},
	"broker":    predict.Set{string(brokerhub.BrokerDhan), string(brokerhub.BrokerZerodha)},
}

// Completion describes the command line of bh for shell completion.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flagPredictors(flag.CommandLine, nil),
	}
	var names predict.Set
	for _, g := range groups {
		for _, c := range g.commands {
			root.Sub[c.Name()] = completion(c)
			names = append(names, c.Name())
		}
	}
	root.Sub["help"] = &complete.Command{Args: names}
	root.Sub["commands"] = &complete.Command{Args: predict.Nothing}
	root.Sub["flags"] = &complete.Command{Args: predict.Nothing}
	return root
}

func completion(c subcommands.Command) *complete.Command {
	f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(f)
	var known map[string]complete.Predictor
	cc := &complete.Command{Args: predict.Nothing}
	if p, ok := c.(predictor); ok {
		known = p.predictFlags()
		cc.Args = p.predictArgs()
	}
	cc.Flags = flagPredictors(f, known)
	if ct, ok := c.(container); ok {
		cc.Sub = map[string]*complete.Command{}
		for _, sub := range ct.subcommands() {
			cc.Sub[sub.Name()] = completion(sub)
		}
	}
	return cc
}

func flagPredictors(f *flag.FlagSet, known map[string]complete.Predictor) map[string]complete.Predictor {
	m := map[string]complete.Predictor{}
	f.VisitAll(func(fl *flag.Flag) {
		if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			m[fl.Name] = predict.Nothing
			return
		}
		if p, ok := known[fl.Name]; ok {
			m[fl.Name] = p
			return
		}
		if p, ok := knownValues[fl.Name]; ok {
			m[fl.Name] = p
			return
		}
		m[fl.Name] = predict.Something
	})
	return m
}

func filterSet(filters []brokerhub.Filter) predict.Set {
	s := make(predict.Set, len(filters))
	for i, f := range filters {
		s[i] = string(f)
	}
	return s
}

func (*holdingsCmd) predictFlags() map[string]complete.Predictor {
	return map[string]complete.Predictor{"f": filterSet(brokerhub.HoldingFilters)}
}
func (*holdingsCmd) predictArgs() complete.Predictor { return predict.Nothing }

func (*positionsCmd) predictFlags() map[string]complete.Predictor {
	return map[string]complete.Predictor{"f": filterSet(brokerhub.PositionFilters)}
}
func (*positionsCmd) predictArgs() complete.Predictor { return predict.Nothing }

func (*topicCmd) predictFlags() map[string]complete.Predictor { return nil }
func (*topicCmd) predictArgs() complete.Predictor {
	topics, _ := docs.GetAllTopics()
	return predict.Set(topics)
}

func (*selectCmd) predictFlags() map[string]complete.Predictor { return nil }
func (*selectCmd) predictArgs() complete.Predictor             { return predict.Something }
