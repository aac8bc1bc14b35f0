package gmx

// Minimal ABI fragments for the GMX V1 contracts on Arbitrum. Only the
// methods the gateway calls are declared.

const positionRouterABIJSON = `[
  {"name":"createIncreasePosition","type":"function","stateMutability":"payable",
   "inputs":[{"name":"_path","type":"address[]"},{"name":"_indexToken","type":"address"},
    {"name":"_amountIn","type":"uint256"},{"name":"_minOut","type":"uint256"},
    {"name":"_sizeDelta","type":"uint256"},{"name":"_isLong","type":"bool"},
    {"name":"_acceptablePrice","type":"uint256"},{"name":"_executionFee","type":"uint256"},
    {"name":"_referralCode","type":"bytes32"},{"name":"_callbackTarget","type":"address"}],
   "outputs":[{"name":"","type":"bytes32"}]},
  {"name":"createDecreasePosition","type":"function","stateMutability":"payable",
   "inputs":[{"name":"_path","type":"address[]"},{"name":"_indexToken","type":"address"},
    {"name":"_collateralDelta","type":"uint256"},{"name":"_sizeDelta","type":"uint256"},
    {"name":"_isLong","type":"bool"},{"name":"_receiver","type":"address"},
    {"name":"_acceptablePrice","type":"uint256"},{"name":"_minOut","type":"uint256"},
    {"name":"_executionFee","type":"uint256"},{"name":"_withdrawETH","type":"bool"},
    {"name":"_callbackTarget","type":"address"}],
   "outputs":[{"name":"","type":"bytes32"}]},
  {"name":"cancelIncreasePosition","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"_key","type":"bytes32"},{"name":"_executionFeeReceiver","type":"address"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"name":"minExecutionFee","type":"function","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"increasePositionsIndex","type":"function","stateMutability":"view",
   "inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"getRequestKey","type":"function","stateMutability":"pure",
   "inputs":[{"name":"_account","type":"address"},{"name":"_index","type":"uint256"}],
   "outputs":[{"name":"","type":"bytes32"}]}
]`

const readerABIJSON = `[
  {"name":"getPositions","type":"function","stateMutability":"view",
   "inputs":[{"name":"_vault","type":"address"},{"name":"_account","type":"address"},
    {"name":"_collateralTokens","type":"address[]"},{"name":"_indexTokens","type":"address[]"},
    {"name":"_isLong","type":"bool[]"}],
   "outputs":[{"name":"","type":"uint256[]"}]}
]`

const vaultABIJSON = `[
  {"name":"getMaxPrice","type":"function","stateMutability":"view",
   "inputs":[{"name":"_token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"getMinPrice","type":"function","stateMutability":"view",
   "inputs":[{"name":"_token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const erc20ABIJSON = `[
  {"name":"approve","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"name":"allowance","type":"function","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]}
]`
